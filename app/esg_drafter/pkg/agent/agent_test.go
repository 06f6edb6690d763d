package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

func categories(stakeholders []model.Stakeholder) []string {
	out := make([]string, 0, len(stakeholders))
	for _, s := range stakeholders {
		out = append(out, s.Category)
	}
	return out
}

func topicNames(matrix *model.MaterialityMatrix) []string {
	out := make([]string, 0, len(matrix.Topics))
	for _, t := range matrix.Topics {
		out = append(out, t.Name)
	}
	return out
}

func runStep(t *testing.T, step Step, c *Context) *Update {
	t.Helper()
	update, err := step.Run(context.Background(), c)
	require.NoError(t, err)
	c.Merge(update)
	return update
}

func TestStakeholderStep_KeywordsCaseInsensitive(t *testing.T) {
	cases := []struct {
		word     string
		category string
		signal   string
	}{
		{"Employee", "员工", "employee"},
		{"staff", "员工", "staff"},
		{"STAFF", "员工", "staff"},
		{"Workforce", "员工", "workforce"},
		{"WORKFORCE", "员工", "workforce"},
		{"Customer", "客户", "customer"},
		{"client", "客户", "client"},
		{"CLIENT", "客户", "client"},
		{"Consumer", "客户", "consumer"},
		{"user", "客户", "user"},
		{"USER", "客户", "user"},
	}
	for _, tc := range cases {
		t.Run(tc.word, func(t *testing.T) {
			profile := model.CompanyProfile{
				Name:          "Acme",
				ReportingYear: 2024,
				Industry:      "Technology",
				Description:   "We invest in " + tc.word + " programs",
			}
			update := runStep(t, &StakeholderStep{}, NewContext(profile, nil))

			byCategory := map[string]model.Stakeholder{}
			for _, s := range update.StakeholderMap {
				byCategory[s.Category] = s
			}
			require.Contains(t, byCategory, tc.category)
			assert.Contains(t, byCategory[tc.category].Signals, tc.signal)
			assert.Equal(t, model.PriorityHigh, byCategory[tc.category].Priority)
		})
	}
}

func TestStakeholderStep_EmptyDescription(t *testing.T) {
	c := NewContext(model.CompanyProfile{Name: "Acme", ReportingYear: 2024, Industry: "Services"}, nil)
	update := runStep(t, &StakeholderStep{}, c)

	assert.Equal(t, []string{"投资者", "员工", "客户", "供应商", "监管机构"}, categories(update.StakeholderMap))
	for _, s := range update.StakeholderMap {
		assert.NotEmpty(t, s.Expectations, s.Category)
		assert.NotEmpty(t, s.EngagementChannels, s.Category)
	}
}

func TestStakeholderStep_IndustryGroups(t *testing.T) {
	tests := []struct {
		name        string
		profile     model.CompanyProfile
		want        []string
		wantPrio    model.Priority
		wantPrioFor string
	}{
		{
			name:        "manufacturing adds community",
			profile:     model.CompanyProfile{Name: "A", ReportingYear: 2024, Industry: "Manufacturing"},
			want:        []string{"投资者", "员工", "客户", "供应商", "监管机构", "社区与周边居民"},
			wantPrio:    model.PriorityMedium,
			wantPrioFor: "社区与周边居民",
		},
		{
			name:        "industrial description adds community",
			profile:     model.CompanyProfile{Name: "A", ReportingYear: 2024, Industry: "Energy", Description: "Industrial parks"},
			want:        []string{"投资者", "员工", "客户", "供应商", "监管机构", "社区与周边居民"},
			wantPrio:    model.PriorityMedium,
			wantPrioFor: "社区与周边居民",
		},
		{
			name:        "finance adds association",
			profile:     model.CompanyProfile{Name: "A", ReportingYear: 2024, Industry: "金融服务"},
			want:        []string{"投资者", "员工", "客户", "供应商", "监管机构", "行业协会"},
			wantPrio:    model.PriorityLow,
			wantPrioFor: "行业协会",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update := runStep(t, &StakeholderStep{}, NewContext(tt.profile, nil))
			assert.Equal(t, tt.want, categories(update.StakeholderMap))
			for _, s := range update.StakeholderMap {
				if s.Category == tt.wantPrioFor {
					assert.Equal(t, tt.wantPrio, s.Priority)
				}
			}
		})
	}
}

func TestMaterialityStep_IndustryTopics(t *testing.T) {
	finance := runStep(t, &MaterialityStep{}, NewContext(model.CompanyProfile{Name: "A", ReportingYear: 2024, Industry: "Finance"}, nil))
	assert.Contains(t, topicNames(finance.MaterialityMatrix), "绿色金融与负责任投资")
	assert.NotContains(t, topicNames(finance.MaterialityMatrix), "清洁生产与循环经济")

	manu := runStep(t, &MaterialityStep{}, NewContext(model.CompanyProfile{Name: "A", ReportingYear: 2024, Industry: "高端制造"}, nil))
	assert.Contains(t, topicNames(manu.MaterialityMatrix), "清洁生产与循环经济")
	assert.Len(t, manu.MaterialityMatrix.Topics, 6)
}

func TestMaterialityStep_QuadrantsAndReferences(t *testing.T) {
	update := runStep(t, &MaterialityStep{}, NewContext(model.CompanyProfile{Name: "A", ReportingYear: 2024}, nil))
	matrix := update.MaterialityMatrix

	assert.Equal(t, []string{"公司治理与合规", "气候变化与碳排放管理", "员工发展与安全"},
		matrix.QuadrantSummary[model.QuadrantHighHigh])
	assert.Equal(t, []string{"负责任供应链"}, matrix.QuadrantSummary[model.QuadrantMediumHigh])
	assert.Equal(t, []string{"社区共建与社会贡献"}, matrix.QuadrantSummary[model.QuadrantMediumMedium])
	assert.Empty(t, matrix.QuadrantSummary[model.QuadrantHighMedium])

	governance := matrix.Topics[0]
	assert.True(t, strings.HasPrefix(governance.SSEReference, "SSE 2.1"))
	assert.True(t, strings.HasPrefix(governance.GRIReference, "GRI 2-9"))
	for _, topic := range matrix.Topics {
		assert.NoError(t, topic.Validate())
	}
}

func TestPolicyBenchmarkStep_Coverage(t *testing.T) {
	c := NewContext(model.CompanyProfile{Name: "示例银行", ReportingYear: 2024, Industry: "银行"}, nil)
	runStep(t, &MaterialityStep{}, c)
	update := runStep(t, &PolicyBenchmarkStep{}, c)

	require.Len(t, update.Documents, 1)
	doc := update.Documents[0]
	assert.Equal(t, model.CategoryPolicyAlignment, doc.Category)
	assert.Equal(t, "政策对标清单", doc.Title)
	assert.Contains(t, doc.Summary, "示例银行")
	assert.Len(t, doc.GuidelineLinks, 5)

	governance, ok := doc.Detail("公司治理与合规")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(governance, "政策覆盖程度: 全面覆盖; 关键标准: SSE 2.1"))

	supply, _ := doc.Detail("负责任供应链")
	assert.True(t, strings.HasPrefix(supply, "政策覆盖程度: 需增强"))

	green, _ := doc.Detail("绿色金融与负责任投资")
	assert.Equal(t, "政策覆盖程度: 需增强; 未映射标准", green)
}

func TestPolicyBenchmarkStep_MissingMatrix(t *testing.T) {
	_, err := (&PolicyBenchmarkStep{}).Run(context.Background(), NewContext(model.CompanyProfile{Name: "A", ReportingYear: 2024}, nil))
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Contains(t, err.Error(), string(KeyMaterialityMatrix))
}

func TestPeerBenchmarkStep_Defaults(t *testing.T) {
	tests := []struct {
		industry string
		want     []string
	}{
		{industry: "Banking & Finance", want: []string{"中信银行", "招商银行"}},
		{industry: "Industrial equipment", want: []string{"上汽集团", "三一重工"}},
		{industry: "Retail", want: []string{"中国移动", "阿里巴巴"}},
	}
	for _, tt := range tests {
		t.Run(tt.industry, func(t *testing.T) {
			update := runStep(t, &PeerBenchmarkStep{}, NewContext(model.CompanyProfile{Name: "A", ReportingYear: 2024, Industry: tt.industry}, nil))
			require.Len(t, update.Documents, 1)
			doc := update.Documents[0]
			var labels []string
			for _, d := range doc.Details {
				labels = append(labels, d.Label)
			}
			assert.Equal(t, tt.want, labels)
			assert.Equal(t, model.CategoryPeerBenchmark, doc.Category)
			assert.Equal(t, []string{"GRI 3-1 - Process to determine material topics"}, doc.GuidelineLinks)
		})
	}
}

func TestPeerBenchmarkStep_SuppliedPeers(t *testing.T) {
	peers := []model.PeerHint{
		{Name: "同业甲", Focus: "碳披露"},
		{Name: "同业乙", Focus: "员工关怀", Excerpt: "年度培训覆盖率100%"},
	}
	update := runStep(t, &PeerBenchmarkStep{}, NewContext(model.CompanyProfile{Name: "A", ReportingYear: 2024, Industry: "银行"}, peers))
	doc := update.Documents[0]
	require.Len(t, doc.Details, 2)

	first, _ := doc.Detail("同业甲")
	assert.Equal(t, "对标要点: 碳披露；可借鉴披露方式：案例展示+量化指标", first)
	second, _ := doc.Detail("同业乙")
	assert.Equal(t, "对标要点: 员工关怀；可借鉴披露方式：案例展示+量化指标；公开披露摘录：年度培训覆盖率100%", second)
}

func TestReportCompilerStep_Narrative(t *testing.T) {
	c := NewContext(model.CompanyProfile{Name: "示例制造", ReportingYear: 2024, Industry: "制造业"}, nil)
	for _, step := range Defaults()[:4] {
		runStep(t, step, c)
	}
	update := runStep(t, &ReportCompilerStep{}, c)
	pkg := update.ReportPackage
	require.NotNil(t, pkg)

	assert.True(t, strings.HasPrefix(pkg.PackageID, "pkg-"))
	require.Len(t, pkg.ProcessDocuments, 2)

	lines := strings.Split(pkg.CompiledReport, "\n")
	assert.Equal(t, "示例制造 2024年可持续发展报告草案", lines[0])
	assert.Contains(t, lines, "公司概况：（待补充企业描述）")
	assert.Contains(t, lines, "发展战略：（待补充战略重点）")
	assert.Contains(t, lines, "- 公司治理与合规")
	assert.Contains(t, lines, "- 清洁生产与循环经济")

	for _, doc := range pkg.ProcessDocuments {
		assert.Contains(t, lines, "- "+doc.Title+" ("+doc.Identifier+")")
	}

	policy := strings.Index(pkg.CompiledReport, "《政策对标清单》摘要：")
	peer := strings.Index(pkg.CompiledReport, "《同业对标分析》摘要：")
	assert.Greater(t, policy, 0)
	assert.Greater(t, peer, policy)
}

func TestReportCompilerStep_MissingStakeholders(t *testing.T) {
	c := NewContext(model.CompanyProfile{Name: "A", ReportingYear: 2024}, nil)
	runStep(t, &MaterialityStep{}, c)

	_, err := (&ReportCompilerStep{}).Run(context.Background(), c)
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Contains(t, err.Error(), string(KeyStakeholderMap))
}

func TestContext_MergeAppendsDocuments(t *testing.T) {
	c := NewContext(model.CompanyProfile{Name: "A", ReportingYear: 2024}, nil)
	assert.False(t, c.Has(KeyPeerInputs))

	first := model.NewProcessDocument("一", model.CategoryPolicyAlignment, "", nil)
	second := model.NewProcessDocument("二", model.CategoryPeerBenchmark, "", nil)
	c.Merge(&Update{Documents: []model.ProcessDocument{first}})
	c.Merge(&Update{Documents: []model.ProcessDocument{second}})

	docs := c.ProcessDocuments()
	require.Len(t, docs, 2)
	assert.Equal(t, first.Identifier, docs[0].Identifier)
	assert.Equal(t, second.Identifier, docs[1].Identifier)
	assert.Equal(t, []Key{KeyCompany, KeyProcessDocuments}, c.Keys())
}
