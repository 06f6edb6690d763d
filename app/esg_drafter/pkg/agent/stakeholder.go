package agent

import (
	"context"
	"slices"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

type stakeholderGroup struct {
	category    string
	description string
}

var baseGroups = []stakeholderGroup{
	{category: "投资者", description: "股东及潜在投资人"},
	{category: "员工", description: "全职员工、合同工及实习生"},
	{category: "客户", description: "核心业务的客户与终端用户"},
	{category: "供应商", description: "关键原材料与服务供应商"},
	{category: "监管机构", description: "政府、交易所等监管主体"},
}

var (
	communityGroup   = stakeholderGroup{category: "社区与周边居民", description: "工厂所在地社区与居民"}
	associationGroup = stakeholderGroup{category: "行业协会", description: "金融行业自律和行业组织"}
)

var stakeholderExpectations = map[string][]string{
	"投资者":     {"可持续发展战略与风险管理透明", "符合SSE 2.1要求的董事会治理披露"},
	"员工":      {"职业发展与公平薪酬", "健康与安全保障 (对标GRI-403)"},
	"客户":      {"绿色产品与服务质量", "信息安全与隐私保护"},
	"供应商":     {"负责任采购政策", "供应链碳排透明"},
	"监管机构":    {"合规经营", "履行披露义务"},
	"社区与周边居民": {"社区沟通机制", "环境影响最小化"},
	"行业协会":    {"同业最佳实践分享", "行业标准制定参与"},
}

var stakeholderChannels = map[string][]string{
	"投资者":     {"年度股东大会", "ESG路演", "可持续发展报告"},
	"员工":      {"员工大会", "内部社交平台", "满意度调查"},
	"客户":      {"客户服务热线", "满意度调查", "产品召回机制"},
	"供应商":     {"供应商大会", "责任供应链协议", "现场审核"},
	"监管机构":    {"定期信息披露", "专项汇报会"},
	"社区与周边居民": {"社区开放日", "社区热线", "环境监测公告"},
	"行业协会":    {"行业论坛", "标准制定工作组"},
}

var stakeholderPriority = map[string]model.Priority{
	"投资者":     model.PriorityHigh,
	"客户":      model.PriorityHigh,
	"员工":      model.PriorityHigh,
	"监管机构":    model.PriorityHigh,
	"供应商":     model.PriorityMedium,
	"社区与周边居民": model.PriorityMedium,
}

var (
	defaultExpectations = []string{"持续沟通与透明披露"}
	defaultChannels     = []string{"邮件沟通", "定期会议"}
)

// StakeholderStep 识别利益相关方并确定沟通优先级
type StakeholderStep struct{}

// Name implements Step
func (s *StakeholderStep) Name() string { return "stakeholder_analysis" }

// Description implements Step
func (s *StakeholderStep) Description() string {
	return "Identify and prioritise key stakeholder groups."
}

// Contract implements Step
func (s *StakeholderStep) Contract() Contract {
	return Contract{
		Requires: []Key{KeyCompany},
		Produces: []Key{KeyStakeholderMap},
	}
}

// Run implements Step
func (s *StakeholderStep) Run(_ context.Context, c *Context) (*Update, error) {
	profile, err := c.Company()
	if err != nil {
		return nil, err
	}

	groups := stakeholderGroups(profile)
	text := profileText(profile)
	stakeholders := make([]model.Stakeholder, 0, len(groups))
	for _, g := range groups {
		stakeholders = append(stakeholders, buildStakeholder(g, text))
	}
	return &Update{StakeholderMap: stakeholders}, nil
}

// stakeholderGroups 返回画像对应的利益相关方类别：基础五类加行业触发的补充类别。
// 描述缺失时按空串处理。
func stakeholderGroups(profile model.CompanyProfile) []stakeholderGroup {
	groups := slices.Clone(baseGroups)
	if isManufacturing(profile.Industry) || isManufacturing(profile.Description) {
		groups = append(groups, communityGroup)
	}
	if isFinance(profile.Industry) {
		groups = append(groups, associationGroup)
	}
	return groups
}

func buildStakeholder(g stakeholderGroup, text string) model.Stakeholder {
	expectations, ok := stakeholderExpectations[g.category]
	if !ok {
		expectations = defaultExpectations
	}
	channels, ok := stakeholderChannels[g.category]
	if !ok {
		channels = defaultChannels
	}
	return model.Stakeholder{
		Category:           g.category,
		Description:        g.description,
		Expectations:       slices.Clone(expectations),
		EngagementChannels: slices.Clone(channels),
		Priority:           priorityOf(g.category),
		Signals:            signalsFor(g.category, text),
	}
}

func priorityOf(category string) model.Priority {
	if p, ok := stakeholderPriority[category]; ok {
		return p
	}
	return model.PriorityLow
}
