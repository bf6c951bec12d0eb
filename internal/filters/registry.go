package filters

import (
	"fmt"
	"sync"

	"acaipulse/pkg/contracts/domain"
)

// Registry keeps stages in registration order.
type Registry struct {
	mu     sync.RWMutex
	stages map[string]Stage
	order  []string
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{
		stages: make(map[string]Stage),
		order:  make([]string, 0),
	}
}

// Register appends a stage to the pipeline order.
func (r *Registry) Register(stage Stage) error {
	if stage == nil {
		return fmt.Errorf("cannot register nil stage")
	}

	id := stage.ID()
	if id == "" {
		return fmt.Errorf("stage ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stages[id]; exists {
		return fmt.Errorf("stage with ID %s already registered", id)
	}

	r.stages[id] = stage
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a stage by ID.
func (r *Registry) Get(id string) (Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stage, exists := r.stages[id]
	if !exists {
		return nil, fmt.Errorf("stage with ID %s not found", id)
	}
	return stage, nil
}

// Has checks if a stage is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.stages[id]
	return exists
}

// List returns all stages in registration order.
func (r *Registry) List() []Stage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stages := make([]Stage, 0, len(r.order))
	for _, id := range r.order {
		stages = append(stages, r.stages[id])
	}
	return stages
}

// ListIDs returns all stage IDs in registration order.
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Count returns the number of registered stages.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stages)
}

// DefaultRegistry returns the twelve dashboard stages in pipeline order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, stage := range []Stage{
		NewCategoricalStage(StageStore, "Loja", func(s domain.Sale) string { return s.Store }),
		NewCategoricalStage(StageNeighborhood, "Bairro", func(s domain.Sale) string { return s.Neighborhood }),
		NewDateRangeStage(StageDate, "Período"),
		NewWeekdayStage(StageWeekday, "Dia da Semana"),
		NewClockRangeStage(StageHour, "Horário do Pedido"),
		NewCategoricalStage(StageProduct, "Produto", func(s domain.Sale) string { return s.Product }),
		NewCategoricalStage(StageCategory, "Categoria", func(s domain.Sale) string { return s.Category }),
		NewCategoricalStage(StageChannel, "Canal de Venda", func(s domain.Sale) string { return s.Channel }),
		NewCategoricalStage(StagePayment, "Forma de Pagamento", func(s domain.Sale) string { return s.Payment }),
		NewCategoricalStage(StageCustomerType, "Tipo de Cliente", func(s domain.Sale) string { return s.CustomerType }),
		NewPromotionStage(StagePromotion, "Apenas vendas em promoção"),
		NewCategoricalStage(StageWeather, "Clima", func(s domain.Sale) string { return s.Weather }),
	} {
		// ids above are distinct constants
		if err := r.Register(stage); err != nil {
			panic(err)
		}
	}
	return r
}
