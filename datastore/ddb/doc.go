/*
Package ddb compiles predicate sets into DynamoDB operations and runs them.

A request flows through four stages:

  - the resolver picks the cheapest access path (primary key, LSI, GSI or scan)
  - the compiler renders it as a GetItem, BatchGetItem, Query or Scan descriptor
  - the engine executes the descriptor with auto-pagination and early-stop
  - the mapper turns raw items into uniform records

Typical use:

	engine := ddb.NewEngine(client, ddb.WithLogger(logger))
	users := engine.Table("users")
	res, err := users.Find(ctx, storagemodels.Where(
	    storagemodels.Eq("status", "active"),
	    storagemodels.Gt("age", 30),
	).WithLimit(10))

Pass res.Cursor back through PredicateSet.After to continue an incomplete read.

Streaming:

	results := users.Stream(ctx, ps,
	    storagemodels.WithBufferSize(100),
	    storagemodels.WithPageSize(25),
	    storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
	        log.Printf("Processed %d items", p.ItemsProcessed)
	    }),
	)

Counting large tables can be split into parallel scan segments with
Engine.CountSegmented.
*/
package ddb
