/*
Package registry holds declared table schemas for ddbquery.

Tables whose schema is known up front (typically from the YAML configuration)
are registered once and are never described against the live table:

	schemas := registry.NewSchemas()
	err := schemas.Register(storagemodels.TableSchema{
	    Name: "users",
	    Key:  storagemodels.TableKeySchema{PartitionKey: storagemodels.KeyAttribute{Name: "id", Type: "S"}},
	    Indexes: []storagemodels.SecondaryIndex{
	        {Name: "email-index", Kind: storagemodels.IndexGlobal,
	            PartitionKey: storagemodels.KeyAttribute{Name: "email", Type: "S"}},
	    },
	})

A registry is an ordinary value injected into the engine's metadata cache;
there is no process-wide instance. It is safe for concurrent use.
*/
package registry
