// Package agent 定义流水线步骤契约及五个内置步骤。
//
// 每个步骤声明自己读取的必需键、可选键和产出的键；
// 步骤之间只通过 Context 传递数据，自身不持有运行状态。
package agent

import (
	"context"
)

// Contract 步骤的输入输出声明
type Contract struct {
	Requires []Key
	Optional []Key
	Produces []Key
}

// Step 流水线步骤
type Step interface {
	Name() string
	Description() string
	Contract() Contract
	// Run 读取上下文并返回增量，不得直接修改上下文
	Run(ctx context.Context, c *Context) (*Update, error)
}

// Defaults 返回默认的步骤序列。
// 顺序固定：政策对标与同业对标依赖议题矩阵，报告汇编依赖前序全部产出。
func Defaults() []Step {
	return []Step{
		&StakeholderStep{},
		&MaterialityStep{},
		&PolicyBenchmarkStep{},
		&PeerBenchmarkStep{},
		&ReportCompilerStep{},
	}
}
