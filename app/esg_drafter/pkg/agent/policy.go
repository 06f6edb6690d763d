package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/guideline"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

const (
	coverageComprehensive = "全面覆盖"
	coverageNeedsWork     = "需增强"
	noMappedStandard      = "未映射标准"
)

// PolicyBenchmarkStep 比对内部政策与披露要求
type PolicyBenchmarkStep struct{}

// Name implements Step
func (s *PolicyBenchmarkStep) Name() string { return "policy_benchmark" }

// Description implements Step
func (s *PolicyBenchmarkStep) Description() string {
	return "Compare internal policies with disclosure requirements."
}

// Contract implements Step
func (s *PolicyBenchmarkStep) Contract() Contract {
	return Contract{
		Requires: []Key{KeyCompany, KeyMaterialityMatrix},
		Optional: []Key{KeyProcessDocuments},
		Produces: []Key{KeyProcessDocuments},
	}
}

// Run implements Step
func (s *PolicyBenchmarkStep) Run(_ context.Context, c *Context) (*Update, error) {
	company, err := c.Company()
	if err != nil {
		return nil, err
	}
	matrix, err := c.MaterialityMatrix()
	if err != nil {
		return nil, err
	}
	doc := buildPolicyDocument(company.Name, matrix)
	return &Update{Documents: []model.ProcessDocument{doc}}, nil
}

func buildPolicyDocument(companyName string, matrix *model.MaterialityMatrix) model.ProcessDocument {
	summary := fmt.Sprintf("基于%s现有政策文本的自动比对，结合《可持续发展报告披露指引与编写指南》"+
		"核心条款及GRI通用标准，形成政策对标清单，指出高优先级议题的覆盖度和改进方向。", companyName)
	doc := model.NewProcessDocument("政策对标清单", model.CategoryPolicyAlignment, summary, guideline.SSELinks())

	for _, topic := range matrix.Topics {
		coverage := coverageNeedsWork
		if topic.ImpactScore >= 4.5 {
			coverage = coverageComprehensive
		}
		refs := topic.References()
		if len(refs) == 0 {
			doc.SetDetail(topic.Name, fmt.Sprintf("政策覆盖程度: %s; %s", coverage, noMappedStandard))
			continue
		}
		doc.SetDetail(topic.Name, fmt.Sprintf("政策覆盖程度: %s; 关键标准: %s", coverage, strings.Join(refs, ", ")))
	}
	return doc
}
