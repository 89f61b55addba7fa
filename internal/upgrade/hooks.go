package upgrade

// Data migration hooks are registered here.
// Add new hooks when a schema migration requires Go-based data transformation.
//
// Example:
//
//	func init() {
//		RegisterDataHook(2, "002_backfill_rate_bps", func(ctx context.Context, db *sql.DB) error {
//			// transform data after migration 000002 is applied
//			return nil
//		})
//	}
