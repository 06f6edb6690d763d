package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

// ReportCompilerStep 汇编报告草案，是流水线的终端步骤
type ReportCompilerStep struct{}

// Name implements Step
func (s *ReportCompilerStep) Name() string { return "report_compiler" }

// Description implements Step
func (s *ReportCompilerStep) Description() string {
	return "Create a narrative ESG report draft covering SSE and GRI structure."
}

// Contract implements Step
func (s *ReportCompilerStep) Contract() Contract {
	return Contract{
		Requires: []Key{KeyCompany, KeyStakeholderMap, KeyMaterialityMatrix},
		Optional: []Key{KeyProcessDocuments},
		Produces: []Key{KeyReportPackage},
	}
}

// Run implements Step
func (s *ReportCompilerStep) Run(_ context.Context, c *Context) (*Update, error) {
	company, err := c.Company()
	if err != nil {
		return nil, err
	}
	stakeholders, err := c.StakeholderMap()
	if err != nil {
		return nil, err
	}
	matrix, err := c.MaterialityMatrix()
	if err != nil {
		return nil, err
	}
	documents := c.ProcessDocuments()
	if documents == nil {
		documents = []model.ProcessDocument{}
	}

	pkg := &model.ESGReportPackage{
		PackageID:         model.NewIdentifier("pkg"),
		Company:           company,
		StakeholderMap:    stakeholders,
		MaterialityMatrix: matrix,
		ProcessDocuments:  documents,
		CompiledReport:    composeReport(company, stakeholders, matrix, documents),
		CreatedAt:         time.Now(),
	}
	return &Update{ReportPackage: pkg}, nil
}

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}

func composeReport(company model.CompanyProfile, stakeholders []model.Stakeholder, matrix *model.MaterialityMatrix, documents []model.ProcessDocument) string {
	lines := []string{
		fmt.Sprintf("%s %d年可持续发展报告草案", company.Name, company.ReportingYear),
		"一、报告概览",
		"公司概况：" + orPlaceholder(company.Description, "（待补充企业描述）"),
		"发展战略：" + orPlaceholder(company.StrategyFocus, "（待补充战略重点）"),
		"二、治理与管理体系 (对应SSE 2.1 / GRI 2-9)",
		"董事会及管理层负责ESG的职责已梳理，正在完善年度考核机制。",
		"三、利益相关方沟通 (对应SSE 4.2 / GRI 3-1)",
		"主要利益相关方列表：",
	}
	for _, s := range stakeholders {
		lines = append(lines, fmt.Sprintf("- %s (优先级: %s)：关注点：%s；沟通渠道：%s",
			s.Category, s.Priority, strings.Join(s.Expectations, "; "), strings.Join(s.EngagementChannels, ", ")))
	}

	lines = append(lines, "四、重要性评估与议题矩阵", model.QuadrantHighHigh+"议题：")
	for _, topic := range matrix.QuadrantSummary[model.QuadrantHighHigh] {
		lines = append(lines, "- "+topic)
	}

	lines = append(lines, "五、政策对标与改进建议")
	lines = append(lines, documentSummaries(documents, model.CategoryPolicyAlignment)...)
	lines = append(lines, "六、同业对标启示")
	lines = append(lines, documentSummaries(documents, model.CategoryPeerBenchmark)...)

	lines = append(lines,
		"七、下一步行动计划",
		"结合SSE《可持续发展报告披露指引与编写指南》与GRI标准，将形成指标数据收集计划、"+
			"管理制度更新计划以及对外披露的时间安排。",
		"附录：过程性文件索引",
	)
	for _, doc := range documents {
		lines = append(lines, fmt.Sprintf("- %s (%s)", doc.Title, doc.Identifier))
	}
	return strings.Join(lines, "\n")
}

func documentSummaries(documents []model.ProcessDocument, category string) []string {
	var lines []string
	for _, doc := range documents {
		if doc.Category == category {
			lines = append(lines, fmt.Sprintf("《%s》摘要：%s", doc.Title, doc.Summary))
		}
	}
	return lines
}
