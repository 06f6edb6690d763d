package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidProfile 企业画像不满足最低要求
var ErrInvalidProfile = errors.New("invalid company profile")

// 过程性文件分类
const (
	CategoryPolicyAlignment  = "policy_alignment"
	CategoryPeerBenchmark    = "peer_benchmark"
	CategoryUserConfirmation = "user_confirmation"
)

// NewIdentifier 生成带可读前缀的唯一标识，例如 doc-1a2b3c4d5e6f
func NewIdentifier(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s", prefix, raw[:12])
}

// CompanyProfile 企业基本信息，流水线的唯一必需输入
type CompanyProfile struct {
	Name          string `json:"name" yaml:"name"`
	ReportingYear int    `json:"reporting_year" yaml:"reporting_year"`
	Industry      string `json:"industry" yaml:"industry"`
	Region        string `json:"region" yaml:"region"`
	Description   string `json:"description,omitempty" yaml:"description"`
	StrategyFocus string `json:"strategy_focus,omitempty" yaml:"strategy_focus"`
}

// Validate 校验企业画像，只要求报告年度为正数；名称为空时按空字符串继续
func (p CompanyProfile) Validate() error {
	if p.ReportingYear <= 0 {
		return fmt.Errorf("%w: reporting year must be positive, got %d", ErrInvalidProfile, p.ReportingYear)
	}
	return nil
}

// PeerHint 外部提供的同业企业线索
type PeerHint struct {
	Name    string `json:"name" yaml:"name"`
	Focus   string `json:"focus" yaml:"focus"`
	URL     string `json:"url,omitempty" yaml:"url"`
	Excerpt string `json:"excerpt,omitempty" yaml:"excerpt"`
}

// Priority 利益相关方沟通优先级
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Stakeholder 利益相关方
type Stakeholder struct {
	Category           string   `json:"category"`
	Description        string   `json:"description"`
	Expectations       []string `json:"expectations"`
	EngagementChannels []string `json:"engagement_channels"`
	Priority           Priority `json:"priority"`
	Signals            []string `json:"signals,omitempty"`
}

// MaterialTopic 实质性议题
type MaterialTopic struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	SSEReference   string   `json:"sse_reference,omitempty"`
	GRIReference   string   `json:"gri_reference,omitempty"`
	ImpactScore    float64  `json:"impact_score"`
	InfluenceScore float64  `json:"influence_score"`
	Keywords       []string `json:"keywords,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// Validate 评分必须位于 [0,5]
func (t MaterialTopic) Validate() error {
	if t.ImpactScore < 0 || t.ImpactScore > 5 {
		return fmt.Errorf("topic %q: impact score %.2f out of range [0,5]", t.Name, t.ImpactScore)
	}
	if t.InfluenceScore < 0 || t.InfluenceScore > 5 {
		return fmt.Errorf("topic %q: influence score %.2f out of range [0,5]", t.Name, t.InfluenceScore)
	}
	return nil
}

// References 返回已映射的标准引用，忽略空槽位
func (t MaterialTopic) References() []string {
	var refs []string
	for _, ref := range []string{t.SSEReference, t.GRIReference} {
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// 议题矩阵象限
const (
	QuadrantHighHigh     = "高影响 / 高重要"
	QuadrantHighMedium   = "高影响 / 中重要"
	QuadrantMediumHigh   = "中影响 / 高重要"
	QuadrantMediumMedium = "中影响 / 中重要"
)

// Quadrants 按展示顺序返回全部象限
func Quadrants() []string {
	return []string{QuadrantHighHigh, QuadrantHighMedium, QuadrantMediumHigh, QuadrantMediumMedium}
}

// QuadrantOf 根据影响力与重要性评分确定象限，阈值为 4
func QuadrantOf(impact, influence float64) string {
	switch {
	case impact >= 4 && influence >= 4:
		return QuadrantHighHigh
	case impact >= 4:
		return QuadrantHighMedium
	case influence >= 4:
		return QuadrantMediumHigh
	default:
		return QuadrantMediumMedium
	}
}

// MaterialityMatrix 议题列表及象限汇总
type MaterialityMatrix struct {
	Topics          []MaterialTopic     `json:"topics"`
	QuadrantSummary map[string][]string `json:"quadrant_summary"`
}

// NewMaterialityMatrix 由议题列表推导象限汇总
func NewMaterialityMatrix(topics []MaterialTopic) *MaterialityMatrix {
	summary := make(map[string][]string, 4)
	for _, q := range Quadrants() {
		summary[q] = []string{}
	}
	for _, topic := range topics {
		q := QuadrantOf(topic.ImpactScore, topic.InfluenceScore)
		summary[q] = append(summary[q], topic.Name)
	}
	return &MaterialityMatrix{Topics: topics, QuadrantSummary: summary}
}

// Detail 过程性文件中的一条明细
type Detail struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Date 仅包含日期的时间，序列化为 2006-01-02
type Date struct {
	time.Time
}

const dateLayout = time.DateOnly

// Today 返回当天日期
func Today() Date {
	y, m, d := time.Now().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.Local)}
}

// String implements fmt.Stringer
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// ProcessDocument 过程性文件
type ProcessDocument struct {
	Identifier     string   `json:"identifier"`
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	GuidelineLinks []string `json:"guideline_links"`
	Summary        string   `json:"summary"`
	Details        []Detail `json:"details"`
	CreatedAt      Date     `json:"created_at"`
}

// NewProcessDocument 创建过程性文件并生成标识
func NewProcessDocument(title, category, summary string, links []string) ProcessDocument {
	if links == nil {
		links = []string{}
	}
	return ProcessDocument{
		Identifier:     NewIdentifier("doc"),
		Title:          title,
		Category:       category,
		GuidelineLinks: links,
		Summary:        summary,
		Details:        []Detail{},
		CreatedAt:      Today(),
	}
}

// SetDetail 写入明细；已存在的标签原位覆盖，保持首次出现的顺序
func (d *ProcessDocument) SetDetail(label, text string) {
	for i := range d.Details {
		if d.Details[i].Label == label {
			d.Details[i].Text = text
			return
		}
	}
	d.Details = append(d.Details, Detail{Label: label, Text: text})
}

// Detail 按标签查找明细
func (d ProcessDocument) Detail(label string) (string, bool) {
	for _, item := range d.Details {
		if item.Label == label {
			return item.Text, true
		}
	}
	return "", false
}

// ESGReportPackage 报告包：最终报告草案及全部过程性文件
type ESGReportPackage struct {
	PackageID         string             `json:"package_id"`
	Company           CompanyProfile     `json:"company"`
	StakeholderMap    []Stakeholder      `json:"stakeholder_map"`
	MaterialityMatrix *MaterialityMatrix `json:"materiality_matrix"`
	ProcessDocuments  []ProcessDocument  `json:"process_documents"`
	CompiledReport    string             `json:"compiled_report"`
	CreatedAt         time.Time          `json:"created_at"`
}

// FindDocument 根据标识查找过程性文件
func (p *ESGReportPackage) FindDocument(identifier string) (*ProcessDocument, bool) {
	for i := range p.ProcessDocuments {
		if p.ProcessDocuments[i].Identifier == identifier {
			return &p.ProcessDocuments[i], true
		}
	}
	return nil, false
}

// AppendDocument 在末尾追加过程性文件，已有文件的顺序与标识不变
func (p *ESGReportPackage) AppendDocument(doc ProcessDocument) {
	p.ProcessDocuments = append(p.ProcessDocuments, doc)
}

// DocumentsByCategory 按插入顺序返回指定分类的文件
func (p *ESGReportPackage) DocumentsByCategory(category string) []ProcessDocument {
	var docs []ProcessDocument
	for _, doc := range p.ProcessDocuments {
		if doc.Category == category {
			docs = append(docs, doc)
		}
	}
	return docs
}
