package domain

import (
	"fmt"
)

// TabMeta is the tab-bar entry for a portfolio: its id and display name.
type TabMeta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is the multi-tab state container. Tabs and TabsData stay in 1:1
// correspondence and ActiveTab always references an existing tab.
type Session struct {
	Tabs      []TabMeta             `json:"tabs"`
	TabsData  map[string]*Portfolio `json:"tabsData"`
	ActiveTab string                `json:"activeTab"`
}

// Active returns the currently displayed portfolio.
func (s *Session) Active() *Portfolio {
	return s.TabsData[s.ActiveTab]
}

// ActiveMeta returns the tab-bar entry of the active portfolio, or nil.
func (s *Session) ActiveMeta() *TabMeta {
	return s.Tab(s.ActiveTab)
}

// Tab returns the tab-bar entry with the given id, or nil.
func (s *Session) Tab(id string) *TabMeta {
	for i := range s.Tabs {
		if s.Tabs[i].ID == id {
			return &s.Tabs[i]
		}
	}
	return nil
}

// Validate checks the structural invariants of a session, typically one
// restored from the persisted store.
func (s *Session) Validate() error {
	if len(s.Tabs) == 0 {
		return fmt.Errorf("session has no tabs")
	}
	if len(s.Tabs) != len(s.TabsData) {
		return fmt.Errorf("tab list and tab data out of sync: %d tabs, %d bodies", len(s.Tabs), len(s.TabsData))
	}
	seen := make(map[string]bool, len(s.Tabs))
	for _, t := range s.Tabs {
		if t.ID == "" {
			return fmt.Errorf("tab %q has empty id", t.Name)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate tab id %s", t.ID)
		}
		seen[t.ID] = true
		if s.TabsData[t.ID] == nil {
			return fmt.Errorf("tab %s has no data entry", t.ID)
		}
	}
	if s.Tab(s.ActiveTab) == nil {
		return fmt.Errorf("active tab %s does not resolve", s.ActiveTab)
	}
	return nil
}
