package modeler

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/b3ncr0w/financial-tools/internal/domain"
)

// ExportedAsset is an asset in the interchange document. Ids are stripped
// and regenerated on import.
type ExportedAsset struct {
	Name         string          `json:"name"`
	Percentage   decimal.Decimal `json:"percentage"`
	CurrentValue decimal.Decimal `json:"currentValue"`
}

// ExportedWallet is a wallet in the interchange document.
type ExportedWallet struct {
	Name         string          `json:"name"`
	Percentage   decimal.Decimal `json:"percentage"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	Assets       []ExportedAsset `json:"assets"`
}

// ExportDocument is the id-free snapshot of one portfolio, the shape
// written on export and accepted on import.
type ExportDocument struct {
	TotalCapital *decimal.Decimal `json:"totalCapital"`
	AutoCapital  bool             `json:"autoCapital"`
	AutoWallet   bool             `json:"autoWallet"`
	Wallets      []ExportedWallet `json:"wallets"`
}

// Export snapshots the active portfolio into the interchange document and
// suggests a file name derived from the tab name.
func (s *Service) Export() (ExportDocument, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.session.Active()
	doc := ExportDocument{
		TotalCapital: p.TotalCapital,
		AutoCapital:  p.AutoCapital,
		AutoWallet:   p.AutoWallet,
		Wallets:      make([]ExportedWallet, 0, len(p.Wallets)),
	}
	for _, w := range p.Wallets {
		ew := ExportedWallet{
			Name:         w.Name,
			Percentage:   w.Percentage,
			CurrentValue: w.CurrentValue,
			Assets:       make([]ExportedAsset, 0, len(w.Assets)),
		}
		for _, a := range w.Assets {
			ew.Assets = append(ew.Assets, ExportedAsset{
				Name:         a.Name,
				Percentage:   a.Percentage,
				CurrentValue: a.CurrentValue,
			})
		}
		doc.Wallets = append(doc.Wallets, ew)
	}

	name := "portfolio"
	if meta := s.session.ActiveMeta(); meta != nil && strings.TrimSpace(meta.Name) != "" {
		name = meta.Name
	}
	return doc, name + ".json"
}

// Import parses an interchange document, regenerates all ids and opens the
// result as a new active tab named after the file. A malformed document
// raises a notification and leaves the session untouched.
func (s *Service) Import(fileName string, data []byte) error {
	doc, err := parseImport(data)
	if err != nil {
		s.raiseImportFailed(fileName)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta := domain.TabMeta{
		ID:   uuid.NewString(),
		Name: tabNameFromFile(fileName),
	}
	s.session.Tabs = append(s.session.Tabs, meta)
	s.session.TabsData[meta.ID] = doc.toPortfolio()
	s.session.ActiveTab = meta.ID

	p := s.session.Active()
	s.finish(p, p.WalletValueSum())
	return nil
}

func parseImport(data []byte) (*ExportDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc ExportDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode import document")
	}
	if doc.Wallets == nil {
		return nil, errors.New("import document has no wallets section")
	}
	return &doc, nil
}

func (doc *ExportDocument) toPortfolio() *domain.Portfolio {
	wallets := make([]domain.Wallet, 0, len(doc.Wallets))
	for _, ew := range doc.Wallets {
		w := domain.Wallet{
			ID:           uuid.NewString(),
			Name:         ew.Name,
			Percentage:   ew.Percentage,
			CurrentValue: ew.CurrentValue,
			Assets:       make([]domain.Asset, 0, len(ew.Assets)),
		}
		for _, ea := range ew.Assets {
			w.Assets = append(w.Assets, domain.Asset{
				ID:           uuid.NewString(),
				Name:         ea.Name,
				Percentage:   ea.Percentage,
				CurrentValue: ea.CurrentValue,
			})
		}
		wallets = append(wallets, w)
	}
	return &domain.Portfolio{
		Wallets:      wallets,
		TotalCapital: doc.TotalCapital,
		AutoCapital:  doc.AutoCapital,
		AutoWallet:   doc.AutoWallet,
	}
}

func (s *Service) raiseImportFailed(fileName string) {
	msg := strings.ReplaceAll(s.labels.ImportFailed, "{file}", fileName)
	s.notifier.Raise("import:"+fileName, msg)
}

func tabNameFromFile(fileName string) string {
	base := filepath.Base(fileName)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.TrimSpace(name) == "" {
		return base
	}
	return name
}
