package scenario

import (
	"context"
	"time"

	"github.com/isharak/ballerina/pkg/concurrency/lock"
	"github.com/isharak/ballerina/pkg/concurrency/worker"
	"github.com/isharak/ballerina/pkg/structure"
	"github.com/isharak/ballerina/pkg/types"
)

// Snapshot is a point-in-time view of every structure in a scenario.
type Snapshot struct {
	Taken      time.Time
	Structures []StructureView
	Stats      lock.Stats
	Waiting    int
}

// StructureView describes one structure.
type StructureView struct {
	ID     uint64
	Type   string
	Fields []FieldView
}

// FieldView pairs a field's value with its lock entry state.
type FieldView struct {
	Name      string
	Kind      types.Kind
	Index     int
	Value     string
	Owner     worker.ID
	HoldCount int
	Waiters   []worker.ID
}

// Held reports whether any worker owned the field when the snapshot was taken.
func (f FieldView) Held() bool {
	return f.Owner != worker.None
}

// take records lock states first, then reads values while holding every field
// on a dedicated observer worker, so values are consistent with each other.
// Lock states are sampled per entry and not mutually consistent.
func take(ctx context.Context, m *lock.Manager, structures []*structure.Structure) (Snapshot, error) {
	snap := Snapshot{
		Taken:      time.Now(),
		Structures: make([]StructureView, 0, len(structures)),
		Stats:      m.Stats(),
		Waiting:    len(m.WaitGraph().GetWaitingWorkers()),
	}

	for _, s := range structures {
		view := StructureView{ID: s.ID(), Type: s.Type().Name}
		for _, st := range s.LockTable().Snapshot() {
			name, _ := s.Type().FieldName(st.Key.Kind, st.Key.Index)
			view.Fields = append(view.Fields, FieldView{
				Name:      name,
				Kind:      st.Key.Kind,
				Index:     st.Key.Index,
				Owner:     st.Owner,
				HoldCount: st.HoldCount,
				Waiters:   st.Waiters,
			})
		}
		snap.Structures = append(snap.Structures, view)
	}

	observer := worker.New("observer")
	req := lock.NewRequest()
	for _, s := range structures {
		req.AddAll(s)
	}

	err := m.Do(worker.WithWorker(ctx, observer), observer.ID, req, func() error {
		for i, s := range structures {
			fields := snap.Structures[i].Fields
			for j := range fields {
				v, err := s.Get(fields[j].Kind, fields[j].Index)
				if err != nil {
					return err
				}
				fields[j].Value = v.String()
			}
		}
		return nil
	})
	return snap, err
}
