package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

type Migration struct {
	Name string
	Run  func(ctx context.Context, db *mongo.Database) error
}

// All lists the migrations in the order they are applied. Each one is safe to rerun.
var All = []Migration{
	{Name: "001_create_indexes", Run: CreateIndexes},
	{Name: "002_backfill_registration_date", Run: BackfillRegistrationDate},
	{Name: "003_default_staff_status", Run: DefaultStaffStatus},
}

func RunAll(ctx context.Context, db *mongo.Database) error {
	for _, m := range All {
		if err := m.Run(ctx, db); err != nil {
			return err
		}
	}
	return nil
}
