package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/isharak/ballerina/pkg/concurrency/lock"
	"github.com/isharak/ballerina/pkg/lifetime"
	"github.com/isharak/ballerina/pkg/structure"
	"github.com/isharak/ballerina/pkg/types"
)

func mustType(name, fields string) (*structure.Type, error) {
	defs, err := structure.ParseFields(fields)
	if err != nil {
		return nil, err
	}
	return structure.NewType(name, defs)
}

// increment adds delta to int field index of s. The caller holds the field.
func increment(s *structure.Structure, index int, delta int64) error {
	v, err := s.GetInt(index)
	if err != nil {
		return err
	}
	return s.SetInt(index, v+delta)
}

func buildCounter(cfg Config, lt lifetime.Manager) (*plan, error) {
	typ, err := mustType("Counter", "n:int")
	if err != nil {
		return nil, err
	}
	counter := structure.New(typ, structure.WithLifetime(lt))

	return &plan{
		structures: []*structure.Structure{counter},
		expected:   int64(cfg.Workers) * int64(cfg.Iterations),
		step: func(ctx context.Context, m *lock.Manager, _, _ int) error {
			return m.DoContext(ctx, lock.NewRequest().AddField(counter, "n"), func() error {
				return increment(counter, 0, 1)
			})
		},
		measure: func() (int64, error) {
			return counter.GetInt(0)
		},
	}, nil
}

func buildCrossed(cfg Config, lt lifetime.Manager) (*plan, error) {
	typ, err := mustType("Cell", "v:int")
	if err != nil {
		return nil, err
	}
	left := structure.New(typ, structure.WithLifetime(lt))
	right := structure.New(typ, structure.WithLifetime(lt))

	return &plan{
		structures: []*structure.Structure{left, right},
		expected:   2 * int64(cfg.Workers) * int64(cfg.Iterations),
		step: func(ctx context.Context, m *lock.Manager, n, _ int) error {
			// even workers name left first, odd workers right first
			req := lock.NewRequest()
			if n%2 == 0 {
				req.AddField(left, "v").AddField(right, "v")
			} else {
				req.AddField(right, "v").AddField(left, "v")
			}
			return m.DoContext(ctx, req, func() error {
				if err := increment(left, 0, 1); err != nil {
					return err
				}
				return increment(right, 0, 1)
			})
		},
		measure: func() (int64, error) {
			l, err := left.GetInt(0)
			if err != nil {
				return 0, err
			}
			r, err := right.GetInt(0)
			if err != nil {
				return 0, err
			}
			if l != r {
				return 0, fmt.Errorf("cells diverged: left %d, right %d", l, r)
			}
			return l + r, nil
		},
	}, nil
}

const openingBalance = 1_000_000

func buildTransfer(cfg Config, lt lifetime.Manager) (*plan, error) {
	accountType, err := mustType("Account", "balance:int, transfers:int, owner:string, frozen:boolean")
	if err != nil {
		return nil, err
	}
	ledgerType, err := mustType("Ledger", "from:ref, to:ref, memo:blob, rate:float")
	if err != nil {
		return nil, err
	}

	a := structure.New(accountType, structure.WithLifetime(lt))
	b := structure.New(accountType, structure.WithLifetime(lt))
	ledger := structure.New(ledgerType, structure.WithLifetime(lt))

	for i, acct := range []*structure.Structure{a, b} {
		if err := acct.SetInt(0, openingBalance); err != nil {
			return nil, err
		}
		if err := acct.SetField("owner", types.StringValue(fmt.Sprintf("account-%d", i))); err != nil {
			return nil, err
		}
	}
	if err := ledger.SetRef(0, a); err != nil {
		return nil, err
	}
	if err := ledger.SetRef(1, b); err != nil {
		return nil, err
	}

	return &plan{
		structures: []*structure.Structure{ledger, a, b},
		expected:   2 * openingBalance,
		step: func(ctx context.Context, m *lock.Manager, n, i int) error {
			amount := int64(i%7 + 1)
			// the ledger's direction fields are read and flipped under lock
			req := lock.NewRequest().
				AddField(ledger, "from").
				AddField(ledger, "to").
				AddField(ledger, "memo").
				AddAll(a).
				AddAll(b)

			return m.DoContext(ctx, req, func() error {
				fromRef, err := ledger.GetRef(0)
				if err != nil {
					return err
				}
				toRef, err := ledger.GetRef(1)
				if err != nil {
					return err
				}
				from, ok1 := fromRef.Target.(*structure.Structure)
				to, ok2 := toRef.Target.(*structure.Structure)
				if !ok1 || !ok2 {
					return errors.New("ledger references are not accounts")
				}

				if err := increment(from, 0, -amount); err != nil {
					return err
				}
				if err := increment(to, 0, amount); err != nil {
					return err
				}
				if err := increment(from, 1, 1); err != nil {
					return err
				}
				if err := ledger.SetBlob(0, []byte(fmt.Sprintf("w%d:%d", n, amount))); err != nil {
					return err
				}

				// reverse direction for the next transfer
				if err := ledger.SetRef(1, from); err != nil {
					return err
				}
				return ledger.SetRef(0, to)
			})
		},
		measure: func() (int64, error) {
			x, err := a.GetInt(0)
			if err != nil {
				return 0, err
			}
			y, err := b.GetInt(0)
			if err != nil {
				return 0, err
			}
			return x + y, nil
		},
	}, nil
}
