package agent

import (
	"strings"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

var (
	financeKeywords       = []string{"金融", "银行", "finance", "financial", "bank"}
	manufacturingKeywords = []string{"制造", "工业", "manufactur", "industrial"}
)

// normalize 统一大小写并去除首尾空白；空值返回空串
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func isFinance(industry string) bool {
	return containsAny(normalize(industry), financeKeywords)
}

func isManufacturing(text string) bool {
	return containsAny(normalize(text), manufacturingKeywords)
}

// industryClass 同业默认表使用的行业分类
type industryClass int

const (
	industryOther industryClass = iota
	industryFinance
	industryManufacturing
)

func classifyIndustry(industry string) industryClass {
	switch {
	case isFinance(industry):
		return industryFinance
	case isManufacturing(industry):
		return industryManufacturing
	default:
		return industryOther
	}
}

// categorySignals 利益相关方类别与画像文本中的触发关键词
var categorySignals = []struct {
	category string
	keywords []string
}{
	{category: "投资者", keywords: []string{"investor", "shareholder", "投资者", "股东"}},
	{category: "员工", keywords: []string{"employee", "staff", "workforce", "员工", "职工"}},
	{category: "客户", keywords: []string{"customer", "client", "consumer", "user", "客户", "用户", "消费者"}},
	{category: "供应商", keywords: []string{"supplier", "vendor", "procurement", "供应商", "采购"}},
	{category: "监管机构", keywords: []string{"regulator", "government", "监管", "政府"}},
	{category: "社区与周边居民", keywords: []string{"community", "factory", "plant", "社区", "工厂", "制造", "工业", "manufactur", "industrial"}},
	{category: "行业协会", keywords: []string{"association", "协会", "金融", "银行", "finance", "financial", "bank"}},
}

// profileText 合并行业与描述用于关键词匹配
func profileText(p model.CompanyProfile) string {
	return normalize(p.Industry) + " " + normalize(p.Description)
}

// signalsFor 返回画像文本中命中某类别的关键词，按表顺序
func signalsFor(category, text string) []string {
	var hits []string
	for _, entry := range categorySignals {
		if entry.category != category {
			continue
		}
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				hits = append(hits, kw)
			}
		}
	}
	return hits
}
