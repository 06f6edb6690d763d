package agent

import (
	"errors"
	"fmt"
	"slices"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

// ErrMissingInput 步骤读取了尚未产出的必需键
var ErrMissingInput = errors.New("missing required input")

// Key 上下文键
type Key string

const (
	KeyCompany           Key = "company"
	KeyPeerInputs        Key = "peer_inputs"
	KeyStakeholderMap    Key = "stakeholder_map"
	KeyMaterialityMatrix Key = "materiality_matrix"
	KeyProcessDocuments  Key = "process_documents"
	KeyReportPackage     Key = "report_package"
)

func missing(key Key) error {
	return fmt.Errorf("%w: %s", ErrMissingInput, key)
}

// Context 单次流水线运行的共享上下文。
// 每个字段只在对应步骤产出后才可读；必需访问器对缺失键返回 ErrMissingInput。
type Context struct {
	company      *model.CompanyProfile
	peerInputs   []model.PeerHint
	stakeholders []model.Stakeholder
	matrix       *model.MaterialityMatrix
	documents    []model.ProcessDocument
	pkg          *model.ESGReportPackage

	keys []Key
}

// NewContext 以企业画像为种子创建上下文，同业线索为空时不写入
func NewContext(company model.CompanyProfile, peers []model.PeerHint) *Context {
	c := &Context{}
	c.company = &company
	c.mark(KeyCompany)
	if len(peers) > 0 {
		c.peerInputs = slices.Clone(peers)
		c.mark(KeyPeerInputs)
	}
	return c
}

func (c *Context) mark(key Key) {
	if !slices.Contains(c.keys, key) {
		c.keys = append(c.keys, key)
	}
}

// Has 判断键是否已写入
func (c *Context) Has(key Key) bool {
	return slices.Contains(c.keys, key)
}

// Keys 按首次写入顺序返回已写入的键
func (c *Context) Keys() []Key {
	return slices.Clone(c.keys)
}

// Company 必需：企业画像
func (c *Context) Company() (model.CompanyProfile, error) {
	if c.company == nil {
		return model.CompanyProfile{}, missing(KeyCompany)
	}
	return *c.company, nil
}

// PeerInputs 可选：外部同业线索
func (c *Context) PeerInputs() []model.PeerHint {
	return slices.Clone(c.peerInputs)
}

// StakeholderMap 必需：利益相关方列表
func (c *Context) StakeholderMap() ([]model.Stakeholder, error) {
	if !c.Has(KeyStakeholderMap) {
		return nil, missing(KeyStakeholderMap)
	}
	return slices.Clone(c.stakeholders), nil
}

// StakeholderMapOrEmpty 可选：利益相关方列表，缺失时为空
func (c *Context) StakeholderMapOrEmpty() []model.Stakeholder {
	return slices.Clone(c.stakeholders)
}

// MaterialityMatrix 必需：议题矩阵
func (c *Context) MaterialityMatrix() (*model.MaterialityMatrix, error) {
	if c.matrix == nil {
		return nil, missing(KeyMaterialityMatrix)
	}
	return c.matrix, nil
}

// ProcessDocuments 可选：已累积的过程性文件，缺失时为空
func (c *Context) ProcessDocuments() []model.ProcessDocument {
	return slices.Clone(c.documents)
}

// ReportPackage 必需：终端步骤产出的报告包
func (c *Context) ReportPackage() (*model.ESGReportPackage, error) {
	if c.pkg == nil {
		return nil, missing(KeyReportPackage)
	}
	return c.pkg, nil
}

// Update 步骤返回的增量。nil 字段表示未产出该键；Documents 追加到 process_documents。
type Update struct {
	StakeholderMap    []model.Stakeholder
	MaterialityMatrix *model.MaterialityMatrix
	Documents         []model.ProcessDocument
	ReportPackage     *model.ESGReportPackage
}

// Keys 返回增量涉及的键
func (u *Update) Keys() []Key {
	if u == nil {
		return nil
	}
	var keys []Key
	if u.StakeholderMap != nil {
		keys = append(keys, KeyStakeholderMap)
	}
	if u.MaterialityMatrix != nil {
		keys = append(keys, KeyMaterialityMatrix)
	}
	if len(u.Documents) > 0 {
		keys = append(keys, KeyProcessDocuments)
	}
	if u.ReportPackage != nil {
		keys = append(keys, KeyReportPackage)
	}
	return keys
}

// Merge 将增量合入上下文
func (c *Context) Merge(u *Update) {
	if u == nil {
		return
	}
	if u.StakeholderMap != nil {
		c.stakeholders = slices.Clone(u.StakeholderMap)
		c.mark(KeyStakeholderMap)
	}
	if u.MaterialityMatrix != nil {
		c.matrix = u.MaterialityMatrix
		c.mark(KeyMaterialityMatrix)
	}
	if len(u.Documents) > 0 {
		c.documents = append(c.documents, u.Documents...)
		c.mark(KeyProcessDocuments)
	}
	if u.ReportPackage != nil {
		c.pkg = u.ReportPackage
		c.mark(KeyReportPackage)
	}
}
