/*
Package storagemodels defines the data structures used throughout ddbquery.

Key Types:

TableSchema:
The key schema and secondary-index catalog of one table:

	schema := TableSchema{
	    Name: "users",
	    Key:  TableKeySchema{PartitionKey: KeyAttribute{Name: "id", Type: "S"}},
	    Indexes: []SecondaryIndex{
	        {Name: "email-index", Kind: IndexGlobal, PartitionKey: KeyAttribute{Name: "email", Type: "S"}},
	    },
	}

PredicateSet:
A caller's request, built from predicates:

	ps := Where(Eq("status", "active"), Gt("age", 18)).
	    OrderedBy("createdAt", Descending).
	    WithLimit(10)

AccessPathMatch and OperationDescriptor:
The resolver turns a PredicateSet into an AccessPathMatch; the compiler turns
that into an OperationDescriptor (GetItem, BatchGetItem, Query or Scan).

Result:
Uniform records or a scalar count, plus an opaque cursor for incomplete reads.
*/
package storagemodels
