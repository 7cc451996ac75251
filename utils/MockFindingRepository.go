package utils

import (
	"fmt"

	"github.com/reaandrew/fxcopbridge/core"
)

// MockFindingRepository keeps findings in memory, one set per Store call.
type MockFindingRepository struct {
	Sets []core.FindingSet
}

func (m *MockFindingRepository) Store(findings []core.Finding) error {
	copied := make([]core.Finding, len(findings))
	copy(copied, findings)
	m.Sets = append(m.Sets, core.FindingSet{Findings: copied})
	return nil
}

func (m *MockFindingRepository) Clear() error {
	m.Sets = nil
	return nil
}

func (m *MockFindingRepository) Close() error {
	return nil
}

// Findings returns every stored finding in store order.
func (m *MockFindingRepository) Findings() []core.Finding {
	var all []core.Finding
	for _, set := range m.Sets {
		all = append(all, set.Findings...)
	}
	return all
}

func (m *MockFindingRepository) NewIterator() core.FindingIterator {
	sets := make([]core.FindingSet, len(m.Sets))
	copy(sets, m.Sets)
	return &MockFindingIterator{sets: sets}
}

// MockFindingIterator is the iterator of MockFindingRepository.
type MockFindingIterator struct {
	position int
	sets     []core.FindingSet
}

func (m *MockFindingIterator) Reset() error {
	m.position = 0
	return nil
}

func (m *MockFindingIterator) HasNext() bool {
	return m.position < len(m.sets)
}

func (m *MockFindingIterator) Next() (core.FindingSet, error) {
	if !m.HasNext() {
		return core.FindingSet{}, fmt.Errorf("no more findings")
	}
	set := m.sets[m.position]
	m.position++
	return set, nil
}
