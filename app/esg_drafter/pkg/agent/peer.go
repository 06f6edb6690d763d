package agent

import (
	"context"
	"fmt"

	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/guideline"
	"github.com/iWorld-y/esg_drafter/app/esg_drafter/pkg/model"
)

var defaultPeers = map[industryClass][]model.PeerHint{
	industryFinance: {
		{Name: "中信银行", Focus: "绿色信贷"},
		{Name: "招商银行", Focus: "普惠金融"},
	},
	industryManufacturing: {
		{Name: "上汽集团", Focus: "碳中和路线图"},
		{Name: "三一重工", Focus: "智能制造"},
	},
	industryOther: {
		{Name: "中国移动", Focus: "数字低碳转型"},
		{Name: "阿里巴巴", Focus: "供应链合规"},
	},
}

// DefaultPeers 返回行业对应的默认同业组合
func DefaultPeers(industry string) []model.PeerHint {
	peers := defaultPeers[classifyIndustry(industry)]
	out := make([]model.PeerHint, len(peers))
	copy(out, peers)
	return out
}

// PeerBenchmarkStep 与同业企业的披露实践进行对标
type PeerBenchmarkStep struct{}

// Name implements Step
func (s *PeerBenchmarkStep) Name() string { return "peer_benchmark" }

// Description implements Step
func (s *PeerBenchmarkStep) Description() string {
	return "Compare disclosures with peer companies."
}

// Contract implements Step
func (s *PeerBenchmarkStep) Contract() Contract {
	return Contract{
		Requires: []Key{KeyCompany},
		Optional: []Key{KeyPeerInputs, KeyProcessDocuments},
		Produces: []Key{KeyProcessDocuments},
	}
}

// Run implements Step
func (s *PeerBenchmarkStep) Run(_ context.Context, c *Context) (*Update, error) {
	company, err := c.Company()
	if err != nil {
		return nil, err
	}
	peers := c.PeerInputs()
	if len(peers) == 0 {
		peers = DefaultPeers(company.Industry)
	}
	doc := buildPeerDocument(company, peers)
	return &Update{Documents: []model.ProcessDocument{doc}}, nil
}

func buildPeerDocument(company model.CompanyProfile, peers []model.PeerHint) model.ProcessDocument {
	summary := fmt.Sprintf("针对%s行业的同业企业进行ESG披露差距分析，"+
		"总结可复制的披露结构与关键绩效指标，为报告撰写提供素材。", company.Industry)
	links := []string{guideline.GRI(guideline.GRI3_1).Link()}
	doc := model.NewProcessDocument("同业对标分析", model.CategoryPeerBenchmark, summary, links)

	for _, peer := range peers {
		text := fmt.Sprintf("对标要点: %s；可借鉴披露方式：案例展示+量化指标", peer.Focus)
		if peer.Excerpt != "" {
			text += fmt.Sprintf("；公开披露摘录：%s", peer.Excerpt)
		}
		doc.SetDetail(peer.Name, text)
	}
	return doc
}
