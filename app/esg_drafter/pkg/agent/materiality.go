package agent

import (
	"context"
	"slices"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/guideline"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

type topicSeed struct {
	name        string
	description string
	impact      float64
	influence   float64
	keywords    []string
}

var baseTopics = []topicSeed{
	{name: "公司治理与合规", description: "董事会结构、风险管理与信息披露", impact: 4.5, influence: 5.0, keywords: []string{"governance", "board"}},
	{name: "气候变化与碳排放管理", description: "碳减排目标、能源结构与气候风险应对", impact: 4.7, influence: 4.3, keywords: []string{"climate", "carbon"}},
	{name: "员工发展与安全", description: "员工培训、职业发展及健康安全保障", impact: 4.0, influence: 4.5, keywords: []string{"employee", "safety", "health"}},
	{name: "负责任供应链", description: "供应商管理、供应链ESG风险评估", impact: 3.8, influence: 4.2, keywords: []string{"supply", "procurement"}},
	{name: "社区共建与社会贡献", description: "公益投入、社区沟通与乡村振兴", impact: 3.5, influence: 3.9, keywords: []string{"community", "social"}},
}

var (
	greenFinanceTopic    = topicSeed{name: "绿色金融与负责任投资", description: "ESG投资策略、绿色信贷及风险筛查", impact: 4.2, influence: 4.6, keywords: []string{"finance", "investment"}}
	cleanProductionTopic = topicSeed{name: "清洁生产与循环经济", description: "节能降耗、废弃物管理和资源回收", impact: 4.3, influence: 4.1, keywords: []string{"resource", "waste"}}
)

// MaterialityStep 结合利益相关方与业务影响构建议题矩阵
type MaterialityStep struct{}

// Name implements Step
func (s *MaterialityStep) Name() string { return "materiality" }

// Description implements Step
func (s *MaterialityStep) Description() string {
	return "Build materiality matrix using stakeholder and business impact criteria."
}

// Contract implements Step
func (s *MaterialityStep) Contract() Contract {
	return Contract{
		Requires: []Key{KeyCompany},
		Optional: []Key{KeyStakeholderMap},
		Produces: []Key{KeyMaterialityMatrix},
	}
}

// Run implements Step
func (s *MaterialityStep) Run(_ context.Context, c *Context) (*Update, error) {
	profile, err := c.Company()
	if err != nil {
		return nil, err
	}

	topics, err := suggestTopics(profile.Industry, c.StakeholderMapOrEmpty())
	if err != nil {
		return nil, err
	}
	return &Update{MaterialityMatrix: model.NewMaterialityMatrix(topics)}, nil
}

// suggestTopics 生成议题列表。利益相关方暂不参与评分。
func suggestTopics(industry string, _ []model.Stakeholder) ([]model.MaterialTopic, error) {
	seeds := slices.Clone(baseTopics)
	if isFinance(industry) {
		seeds = append(seeds, greenFinanceTopic)
	}
	if isManufacturing(industry) {
		seeds = append(seeds, cleanProductionTopic)
	}

	topics := make([]model.MaterialTopic, 0, len(seeds))
	for _, seed := range seeds {
		topic := model.MaterialTopic{
			Name:           seed.name,
			Description:    seed.description,
			ImpactScore:    seed.impact,
			InfluenceScore: seed.influence,
			Keywords:       slices.Clone(seed.keywords),
		}
		links := guideline.MapKeywords(seed.keywords)
		if len(links) > 0 {
			topic.SSEReference = links[0]
		}
		if len(links) > 1 {
			topic.GRIReference = links[1]
		}
		if err := topic.Validate(); err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, nil
}
