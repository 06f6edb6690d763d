// Package workflow 按固定顺序编排 agent 步骤，并在每一步前后校验输入输出声明。
package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/agent"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/logger"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

// ErrContractViolation 步骤产出与声明不一致，或流水线未产出报告包
var ErrContractViolation = errors.New("step contract violation")

// MissingInputError 步骤运行前缺少声明的必需键
type MissingInputError struct {
	Step string
	Key  agent.Key
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("step %s: %s: %s", e.Step, agent.ErrMissingInput, e.Key)
}

// Unwrap 使 errors.Is(err, agent.ErrMissingInput) 成立
func (e *MissingInputError) Unwrap() error {
	return agent.ErrMissingInput
}

// StepInfo 步骤的描述信息
type StepInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Requires    []agent.Key `json:"requires"`
	Optional    []agent.Key `json:"optional,omitempty"`
	Produces    []agent.Key `json:"produces"`
}

// StepRecord 单个步骤的执行记录
type StepRecord struct {
	Step     string        `json:"step"`
	Produced []agent.Key   `json:"produced"`
	Duration time.Duration `json:"duration"`
}

// Result 一次完整运行的结果
type Result struct {
	Package *model.ESGReportPackage
	History []StepRecord
}

// Workflow 报告生成流水线
type Workflow struct {
	steps []agent.Step
	log   *logrus.Logger
}

// Option 流水线选项
type Option func(*Workflow)

// WithSteps 替换默认步骤序列
func WithSteps(steps ...agent.Step) Option {
	return func(w *Workflow) {
		w.steps = steps
	}
}

// WithLogger 设置日志实例
func WithLogger(log *logrus.Logger) Option {
	return func(w *Workflow) {
		w.log = log
	}
}

// New 创建流水线，默认步骤见 agent.Defaults
func New(opts ...Option) *Workflow {
	w := &Workflow{
		steps: agent.Defaults(),
		log:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Trace 按执行顺序返回各步骤的声明
func (w *Workflow) Trace() []StepInfo {
	infos := make([]StepInfo, 0, len(w.steps))
	for _, step := range w.steps {
		contract := step.Contract()
		infos = append(infos, StepInfo{
			Name:        step.Name(),
			Description: step.Description(),
			Requires:    slices.Clone(contract.Requires),
			Optional:    slices.Clone(contract.Optional),
			Produces:    slices.Clone(contract.Produces),
		})
	}
	return infos
}

// Execute 运行流水线并返回报告包
func (w *Workflow) Execute(ctx context.Context, company model.CompanyProfile, peers []model.PeerHint) (*model.ESGReportPackage, error) {
	result, err := w.Run(ctx, company, peers)
	if err != nil {
		return nil, err
	}
	return result.Package, nil
}

// Run 运行流水线并返回报告包及每一步的执行记录。
// 每一步开始前检查 ctx，已开始的步骤不会被中断。
func (w *Workflow) Run(ctx context.Context, company model.CompanyProfile, peers []model.PeerHint) (*Result, error) {
	if err := company.Validate(); err != nil {
		return nil, err
	}

	state := agent.NewContext(company, peers)
	history := make([]StepRecord, 0, len(w.steps))
	w.log.Infof("开始生成报告草案 [%s %d]，共 %d 个步骤", company.Name, company.ReportingYear, len(w.steps))

	for _, step := range w.steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("workflow cancelled before step %s: %w", step.Name(), err)
		}

		contract := step.Contract()
		for _, key := range contract.Requires {
			if !state.Has(key) {
				return nil, &MissingInputError{Step: step.Name(), Key: key}
			}
		}

		start := time.Now()
		update, err := step.Run(ctx, state)
		if err != nil {
			w.log.Errorf("步骤 [%s] 执行失败: %v", step.Name(), err)
			return nil, fmt.Errorf("step %s: %w", step.Name(), err)
		}

		produced := update.Keys()
		for _, key := range produced {
			if !slices.Contains(contract.Produces, key) {
				return nil, fmt.Errorf("%w: step %s produced undeclared key %s", ErrContractViolation, step.Name(), key)
			}
		}
		state.Merge(update)

		record := StepRecord{Step: step.Name(), Produced: produced, Duration: time.Since(start)}
		history = append(history, record)
		w.log.WithField("step", step.Name()).Debugf("步骤完成，产出 %v，耗时 %v", produced, record.Duration)
	}

	pkg, err := state.ReportPackage()
	if err != nil {
		return nil, fmt.Errorf("%w: workflow finished without %s", ErrContractViolation, agent.KeyReportPackage)
	}
	w.log.Infof("报告草案生成完成 [%s]，过程性文件 %d 份", pkg.PackageID, len(pkg.ProcessDocuments))
	return &Result{Package: pkg, History: history}, nil
}
