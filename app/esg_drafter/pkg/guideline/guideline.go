// Package guideline 提供上交所《可持续发展报告披露指引》与 GRI 标准的静态引用表。
// 表内容在进程内只读，可被并发的流水线共享。
package guideline

import (
	"fmt"
	"strings"
)

// Reference 指引条款
type Reference struct {
	Framework   string
	Code        string
	Description string
}

// Link 生成可读的条款描述
func (r Reference) Link() string {
	return fmt.Sprintf("%s %s - %s", r.Framework, r.Code, r.Description)
}

// SSE 条款键
const (
	SSEGovernanceStructure   = "governance_structure"
	SSEStakeholderEngagement = "stakeholder_engagement"
	SSEClimateGoals          = "climate_goals"
	SSESupplyChain           = "supply_chain"
	SSECommunityInvestment   = "community_investment"
)

// GRI 条款键
const (
	GRI2_9 = "GRI-2-9"
	GRI3_1 = "GRI-3-1"
	GRI305 = "GRI-305"
	GRI403 = "GRI-403"
	GRI413 = "GRI-413"
)

var sse = map[string]Reference{
	SSEGovernanceStructure:   {Framework: "SSE", Code: "2.1", Description: "Board responsibilities for sustainability oversight"},
	SSEStakeholderEngagement: {Framework: "SSE", Code: "4.2", Description: "Mechanisms for engagement with key stakeholder groups"},
	SSEClimateGoals:          {Framework: "SSE", Code: "5.3", Description: "Disclosure of climate transition plans and targets"},
	SSESupplyChain:           {Framework: "SSE", Code: "6.1", Description: "Supply chain environmental and social risk management"},
	SSECommunityInvestment:   {Framework: "SSE", Code: "7.4", Description: "Community engagement and public welfare initiatives"},
}

// sseOrder 固定 SSE 条款的输出顺序
var sseOrder = []string{
	SSEGovernanceStructure,
	SSEStakeholderEngagement,
	SSEClimateGoals,
	SSESupplyChain,
	SSECommunityInvestment,
}

var gri = map[string]Reference{
	GRI2_9: {Framework: "GRI", Code: "2-9", Description: "Governance structure and composition"},
	GRI3_1: {Framework: "GRI", Code: "3-1", Description: "Process to determine material topics"},
	GRI305: {Framework: "GRI", Code: "305", Description: "Emissions-related disclosures"},
	GRI403: {Framework: "GRI", Code: "403", Description: "Occupational health and safety"},
	GRI413: {Framework: "GRI", Code: "413", Description: "Local communities"},
}

// SSE 按键查找上交所条款
func SSE(key string) Reference {
	return sse[key]
}

// GRI 按键查找 GRI 条款
func GRI(key string) Reference {
	return gri[key]
}

// SSELinks 按固定顺序返回全部上交所条款描述
func SSELinks() []string {
	links := make([]string, 0, len(sseOrder))
	for _, key := range sseOrder {
		links = append(links, sse[key].Link())
	}
	return links
}

// keywordRule 关键词集合与其映射的条款
type keywordRule struct {
	keywords []string
	refs     []Reference
}

var rules = []keywordRule{
	{keywords: []string{"governance", "board"}, refs: []Reference{sse[SSEGovernanceStructure], gri[GRI2_9]}},
	{keywords: []string{"stakeholder", "engagement"}, refs: []Reference{sse[SSEStakeholderEngagement], gri[GRI3_1]}},
	{keywords: []string{"climate", "emission", "carbon"}, refs: []Reference{sse[SSEClimateGoals], gri[GRI305]}},
	{keywords: []string{"supply", "procurement"}, refs: []Reference{sse[SSESupplyChain]}},
	{keywords: []string{"community", "social"}, refs: []Reference{sse[SSECommunityInvestment], gri[GRI413]}},
	{keywords: []string{"safety", "health"}, refs: []Reference{gri[GRI403]}},
}

// MapKeywords 将议题关键词映射为条款描述，去重并保持规则顺序
func MapKeywords(keywords []string) []string {
	set := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		set[strings.ToLower(strings.TrimSpace(kw))] = struct{}{}
	}

	var matches []string
	seen := make(map[string]struct{})
	for _, rule := range rules {
		if !intersects(set, rule.keywords) {
			continue
		}
		for _, ref := range rule.refs {
			link := ref.Link()
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			matches = append(matches, link)
		}
	}
	return matches
}

func intersects(set map[string]struct{}, keywords []string) bool {
	for _, kw := range keywords {
		if _, ok := set[kw]; ok {
			return true
		}
	}
	return false
}
