/*
Package ddbquery runs relational-style predicate sets against DynamoDB.

A predicate set names equality and range conditions, one ordering column, a
limit and a projection. The engine picks the cheapest access path the table
offers (primary key, local or global secondary index, or a full scan),
compiles it into the matching native operation and executes it with
auto-pagination and bounded scanning.

Basic Usage:

	cfg, err := config.Load("ddbquery.yaml")
	if err != nil {
	    return err
	}
	db, err := ddbquery.Open(ctx, cfg)
	if err != nil {
	    return err
	}
	defer db.Close()

	res, err := db.Table("users").Find(ctx, storagemodels.Where(
	    storagemodels.Eq("email", "a@b.com"),
	))

	// Typed access
	users := ddbquery.Typed[User](db, "users")
	active, cursor, err := users.Find(ctx, storagemodels.Where(
	    storagemodels.Eq("status", "active"),
	).WithLimit(10))

Counting:

	total, err := db.Table("users").CountSegmented(ctx, storagemodels.Where(), 8)
	if total.Partial() {
	    // some segments were throttled and counted as zero
	}
*/
package ddbquery
