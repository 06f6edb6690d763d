package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuadrantOf(t *testing.T) {
	cases := []struct {
		impact, influence float64
		want              string
	}{
		{4, 4, QuadrantHighHigh},
		{5, 4.5, QuadrantHighHigh},
		{4.7, 3.99, QuadrantHighMedium},
		{3.8, 4.2, QuadrantMediumHigh},
		{3.5, 3.9, QuadrantMediumMedium},
		{0, 0, QuadrantMediumMedium},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, QuadrantOf(c.impact, c.influence), "impact=%v influence=%v", c.impact, c.influence)
	}
}

func TestNewMaterialityMatrix_Partition(t *testing.T) {
	var topics []MaterialTopic
	for impact := 0.0; impact <= 5; impact += 0.5 {
		for influence := 0.0; influence <= 5; influence += 0.5 {
			topics = append(topics, MaterialTopic{
				Name:           fmt.Sprintf("t-%.1f-%.1f", impact, influence),
				ImpactScore:    impact,
				InfluenceScore: influence,
			})
		}
	}

	matrix := NewMaterialityMatrix(topics)
	require.Len(t, matrix.QuadrantSummary, 4)

	seen := make(map[string]string)
	total := 0
	for quadrant, names := range matrix.QuadrantSummary {
		for _, name := range names {
			prev, dup := seen[name]
			require.False(t, dup, "topic %s placed in %s and %s", name, prev, quadrant)
			seen[name] = quadrant
			total++
		}
	}
	assert.Equal(t, len(topics), total)

	for _, topic := range topics {
		assert.Equal(t, QuadrantOf(topic.ImpactScore, topic.InfluenceScore), seen[topic.Name])
	}
}

func TestMaterialTopic_Validate(t *testing.T) {
	assert.NoError(t, MaterialTopic{Name: "ok", ImpactScore: 5, InfluenceScore: 0}.Validate())
	assert.Error(t, MaterialTopic{Name: "high", ImpactScore: 5.1, InfluenceScore: 1}.Validate())
	assert.Error(t, MaterialTopic{Name: "neg", ImpactScore: 1, InfluenceScore: -0.1}.Validate())
}

func TestCompanyProfile_Validate(t *testing.T) {
	assert.NoError(t, CompanyProfile{Name: "示例", ReportingYear: 2024}.Validate())
	assert.NoError(t, CompanyProfile{ReportingYear: 2024}.Validate())
	assert.ErrorIs(t, CompanyProfile{Name: "示例"}.Validate(), ErrInvalidProfile)
}

func TestAppendDocument_PreservesOrder(t *testing.T) {
	pkg := &ESGReportPackage{PackageID: NewIdentifier("pkg")}
	first := NewProcessDocument("政策对标清单", CategoryPolicyAlignment, "a", nil)
	second := NewProcessDocument("同业对标分析", CategoryPeerBenchmark, "b", nil)
	pkg.AppendDocument(first)
	pkg.AppendDocument(second)

	confirmation := NewProcessDocument("用户确认记录", CategoryUserConfirmation, "c", nil)
	pkg.AppendDocument(confirmation)

	require.Len(t, pkg.ProcessDocuments, 3)
	assert.Equal(t, first.Identifier, pkg.ProcessDocuments[0].Identifier)
	assert.Equal(t, second.Identifier, pkg.ProcessDocuments[1].Identifier)
	assert.Equal(t, confirmation.Identifier, pkg.ProcessDocuments[2].Identifier)

	doc, ok := pkg.FindDocument(second.Identifier)
	require.True(t, ok)
	assert.Equal(t, "同业对标分析", doc.Title)

	_, ok = pkg.FindDocument("doc-missing")
	assert.False(t, ok)
}

func TestProcessDocument_SetDetail(t *testing.T) {
	doc := NewProcessDocument("t", CategoryPeerBenchmark, "s", nil)
	doc.SetDetail("A", "1")
	doc.SetDetail("B", "2")
	doc.SetDetail("A", "3")

	require.Len(t, doc.Details, 2)
	assert.Equal(t, Detail{Label: "A", Text: "3"}, doc.Details[0])
	text, ok := doc.Detail("B")
	assert.True(t, ok)
	assert.Equal(t, "2", text)
}

func TestNewIdentifier(t *testing.T) {
	a := NewIdentifier("doc")
	b := NewIdentifier("doc")
	assert.True(t, strings.HasPrefix(a, "doc-"))
	assert.Len(t, a, len("doc-")+12)
	assert.NotEqual(t, a, b)
}

func TestDate_JSON(t *testing.T) {
	doc := NewProcessDocument("t", CategoryPolicyAlignment, "s", nil)
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"created_at":"`+doc.CreatedAt.String()+`"`)

	var decoded ProcessDocument
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, doc.CreatedAt.String(), decoded.CreatedAt.String())
	assert.Equal(t, doc.Identifier, decoded.Identifier)
}
