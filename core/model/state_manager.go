// Package model provides fitted-state management for estimators.
package model

import "sync"

// StateManager tracks the fitted state of an estimator in a thread-safe
// manner. Estimator types hold it by composition rather than embedding.
type StateManager struct {
	fitted bool
	mu     sync.RWMutex

	nVariables   int
	nObservation int
	nImputations int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the estimator has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the estimator as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
}

// Reset clears the fitted state and recorded dimensions.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nVariables = 0
	s.nObservation = 0
	s.nImputations = 0
}

// SetDimensions records the data shape seen during fitting: p candidate
// variables, n original observations, and M imputed datasets.
func (s *StateManager) SetDimensions(nVariables, nObservations, nImputations int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nVariables = nVariables
	s.nObservation = nObservations
	s.nImputations = nImputations
}

// GetDimensions returns the data shape seen during fitting.
func (s *StateManager) GetDimensions() (nVariables, nObservations, nImputations int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nVariables, s.nObservation, s.nImputations
}
