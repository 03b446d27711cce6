// Package structure implements shared composite values whose fields are
// stored by kind in parallel typed containers.
//
// A Structure owns one container per kind (int64, float64, string, bool,
// blob, reference) and a lock.Table with one entry per field. Get and Set do
// no locking; callers hold the matching entry through lock.Manager:
//
//	typ, _ := structure.NewType("Account", []structure.FieldDef{
//	    {Name: "balance", Kind: types.IntKind},
//	    {Name: "owner", Kind: types.StringKind},
//	})
//	acct := structure.New(typ)
//
//	req := lock.NewRequest().AddField(acct, "balance")
//	err := manager.Do(ctx, w.ID, req, func() error {
//	    bal, err := acct.GetInt(0)
//	    if err != nil {
//	        return err
//	    }
//	    return acct.SetInt(0, bal+10)
//	})
//
// Writes to reference fields retain the new referent and release the old one
// through the structure's lifetime.Manager. Close tears the structure down
// only when no field lock is held.
package structure
