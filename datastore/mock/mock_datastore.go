/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of datastore.Client for testing
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/suparena/ddbquery/datastore"
	"github.com/suparena/ddbquery/storagemodels"
)

var _ datastore.Client = (*Client)(nil)

// FaultFunc is consulted before every call. A non-nil error is returned to the caller instead of running op.
type FaultFunc func(op string, input any) error

// Call is one recorded client call.
type Call struct {
	Op    string
	Input any
}

type table struct {
	schema storagemodels.TableSchema
	items  []map[string]types.AttributeValue
}

// Client is an in-memory DynamoDB. Query and Scan honor key conditions,
// filters, projections, Limit, ExclusiveStartKey, Select COUNT and parallel
// scan segments.
type Client struct {
	mu          sync.RWMutex
	tables      map[string]*table
	calls       []Call
	fault       FaultFunc
	maxPageSize int
	batchLimit  int
}

// New creates an empty mock client
func New() *Client {
	return &Client{tables: make(map[string]*table)}
}

// WithTable creates (or resets) a table
func (c *Client) WithTable(schema storagemodels.TableSchema) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[schema.Name] = &table{schema: schema}
	return c
}

// WithFault installs a fault injector
func (c *Client) WithFault(f FaultFunc) *Client {
	c.fault = f
	return c
}

// WithMaxPageSize caps the items evaluated per Query or Scan page, like the store's 1 MB page limit.
func (c *Client) WithMaxPageSize(n int) *Client {
	c.maxPageSize = n
	return c
}

// WithBatchGetLimit processes at most n keys per BatchGetItem call and reports the rest as unprocessed.
func (c *Client) WithBatchGetLimit(n int) *Client {
	c.batchLimit = n
	return c
}

// Seed marshals and stores items in table
func (c *Client) Seed(tableName string, items ...any) error {
	for _, item := range items {
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal seed item: %w", err)
		}
		if _, err := c.PutItem(context.Background(), &sdk.PutItemInput{TableName: aws.String(tableName), Item: av}); err != nil {
			return err
		}
	}
	c.ResetCalls()
	return nil
}

// Items returns a copy of the items stored in table
func (c *Client) Items(tableName string) []map[string]types.AttributeValue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[tableName]
	if !ok {
		return nil
	}
	out := make([]map[string]types.AttributeValue, len(t.items))
	copy(out, t.items)
	return out
}

// Calls returns the recorded calls in order
func (c *Client) Calls() []Call {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns how many times op was called
func (c *Client) CallCount(op string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, call := range c.calls {
		if call.Op == op {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log
func (c *Client) ResetCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

// begin records the call, consults the fault injector and returns the target table.
func (c *Client) begin(op string, tableName *string, input any) (*table, error) {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Op: op, Input: input})
	c.mu.Unlock()

	if c.fault != nil {
		if err := c.fault(op, input); err != nil {
			return nil, err
		}
	}
	if tableName == nil {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[*tableName]
	if !ok {
		return nil, notFound(*tableName)
	}
	return t, nil
}

func (c *Client) GetItem(ctx context.Context, params *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	t, err := c.begin("GetItem", params.TableName, params)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := t.find(params.Key); i >= 0 {
		item, err := project(t.items[i], params.ProjectionExpression, params.ExpressionAttributeNames)
		if err != nil {
			return nil, validation(err.Error())
		}
		return &sdk.GetItemOutput{Item: item}, nil
	}
	return &sdk.GetItemOutput{}, nil
}

func (c *Client) BatchGetItem(ctx context.Context, params *sdk.BatchGetItemInput, _ ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error) {
	if _, err := c.begin("BatchGetItem", nil, params); err != nil {
		return nil, err
	}
	out := &sdk.BatchGetItemOutput{
		Responses:       make(map[string][]map[string]types.AttributeValue),
		UnprocessedKeys: make(map[string]types.KeysAndAttributes),
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for name, ka := range params.RequestItems {
		total += len(ka.Keys)
		if total > 100 {
			return nil, validation("Too many items requested for the BatchGetItem call")
		}
		t, ok := c.tables[name]
		if !ok {
			return nil, notFound(name)
		}
		keys := ka.Keys
		if c.batchLimit > 0 && len(keys) > c.batchLimit {
			left := ka
			left.Keys = keys[c.batchLimit:]
			out.UnprocessedKeys[name] = left
			keys = keys[:c.batchLimit]
		}
		for _, key := range keys {
			i := t.find(key)
			if i < 0 {
				continue
			}
			item, err := project(t.items[i], ka.ProjectionExpression, ka.ExpressionAttributeNames)
			if err != nil {
				return nil, validation(err.Error())
			}
			out.Responses[name] = append(out.Responses[name], item)
		}
	}
	return out, nil
}

func (c *Client) Query(ctx context.Context, params *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	t, err := c.begin("Query", params.TableName, params)
	if err != nil {
		return nil, err
	}
	keyCond, err := parseCondition(aws.ToString(params.KeyConditionExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if err != nil {
		return nil, validation(err.Error())
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	keyNames, sortKey, err := t.keyNames(aws.ToString(params.IndexName))
	if err != nil {
		return nil, err
	}
	var candidates []map[string]types.AttributeValue
	for _, item := range t.items {
		if keyCond(item) {
			candidates = append(candidates, item)
		}
	}
	if sortKey != "" {
		sort.SliceStable(candidates, func(i, j int) bool {
			cmp, _ := compare(candidates[i][sortKey], candidates[j][sortKey])
			return cmp < 0
		})
	}
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		for i, j := 0, len(candidates)-1; i < j; i, j = i+1, j-1 {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		}
	}

	pg, err := c.page(candidates, keyNames, params.ExclusiveStartKey, params.Limit,
		aws.ToString(params.FilterExpression), aws.ToString(params.ProjectionExpression),
		params.ExpressionAttributeNames, params.ExpressionAttributeValues, params.Select)
	if err != nil {
		return nil, err
	}
	return &sdk.QueryOutput{Items: pg.items, Count: pg.count, ScannedCount: pg.scanned, LastEvaluatedKey: pg.lastKey}, nil
}

func (c *Client) Scan(ctx context.Context, params *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	t, err := c.begin("Scan", params.TableName, params)
	if err != nil {
		return nil, err
	}
	if (params.Segment == nil) != (params.TotalSegments == nil) {
		return nil, validation("Segment and TotalSegments must be set together")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	keyNames, _, err := t.keyNames(aws.ToString(params.IndexName))
	if err != nil {
		return nil, err
	}
	var candidates []map[string]types.AttributeValue
	for i, item := range t.items {
		if params.TotalSegments != nil && int32(i)%*params.TotalSegments != *params.Segment {
			continue
		}
		candidates = append(candidates, item)
	}

	pg, err := c.page(candidates, keyNames, params.ExclusiveStartKey, params.Limit,
		aws.ToString(params.FilterExpression), aws.ToString(params.ProjectionExpression),
		params.ExpressionAttributeNames, params.ExpressionAttributeValues, params.Select)
	if err != nil {
		return nil, err
	}
	return &sdk.ScanOutput{Items: pg.items, Count: pg.count, ScannedCount: pg.scanned, LastEvaluatedKey: pg.lastKey}, nil
}

type pageOut struct {
	items   []map[string]types.AttributeValue
	count   int32
	scanned int32
	lastKey map[string]types.AttributeValue
}

// page evaluates one page of candidates after startKey.
func (c *Client) page(
	candidates []map[string]types.AttributeValue,
	keyNames []string,
	startKey map[string]types.AttributeValue,
	limit *int32,
	filterExpr, projectionExpr string,
	names map[string]string,
	values map[string]types.AttributeValue,
	sel types.Select,
) (*pageOut, error) {
	filter, err := parseCondition(filterExpr, names, values)
	if err != nil {
		return nil, validation(err.Error())
	}
	if limit != nil && *limit <= 0 {
		return nil, validation("Limit must be greater than or equal to 1")
	}

	start := 0
	if len(startKey) > 0 {
		start = -1
		for i, item := range candidates {
			if matchesKey(item, startKey) {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, validation("The provided starting key is invalid")
		}
	}

	end := len(candidates)
	window := -1
	if limit != nil {
		window = int(*limit)
	}
	if c.maxPageSize > 0 && (window < 0 || c.maxPageSize < window) {
		window = c.maxPageSize
	}
	if window >= 0 && start+window < end {
		end = start + window
	}

	out := &pageOut{}
	for _, item := range candidates[start:end] {
		out.scanned++
		if !filter(item) {
			continue
		}
		out.count++
		if sel == types.SelectCount {
			continue
		}
		projected, err := project(item, aws.String(projectionExpr), names)
		if err != nil {
			return nil, validation(err.Error())
		}
		out.items = append(out.items, projected)
	}
	if end < len(candidates) && end > start {
		last := candidates[end-1]
		out.lastKey = make(map[string]types.AttributeValue, len(keyNames))
		for _, k := range keyNames {
			if v, ok := last[k]; ok {
				out.lastKey[k] = v
			}
		}
	}
	return out, nil
}

func (c *Client) PutItem(ctx context.Context, params *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	t, err := c.begin("PutItem", params.TableName, params)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key, err := t.keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	if i := t.find(key); i >= 0 {
		t.items[i] = params.Item
	} else {
		t.items = append(t.items, params.Item)
	}
	return &sdk.PutItemOutput{}, nil
}

// UpdateItem supports "SET a = :v, ..." update expressions and creates the item when absent.
func (c *Client) UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	t, err := c.begin("UpdateItem", params.TableName, params)
	if err != nil {
		return nil, err
	}
	expr := strings.TrimSpace(aws.ToString(params.UpdateExpression))
	if !strings.HasPrefix(strings.ToUpper(expr), "SET ") {
		return nil, validation("only SET update expressions are supported")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key, err := t.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item := make(map[string]types.AttributeValue)
	i := t.find(key)
	if i >= 0 {
		for k, v := range t.items[i] {
			item[k] = v
		}
	} else {
		for k, v := range key {
			item[k] = v
		}
	}

	for _, assignment := range strings.Split(expr[4:], ",") {
		parts := strings.SplitN(assignment, "=", 2)
		if len(parts) != 2 {
			return nil, validation(fmt.Sprintf("invalid assignment %q", assignment))
		}
		name := strings.TrimSpace(parts[0])
		if resolved, ok := params.ExpressionAttributeNames[name]; ok {
			name = resolved
		}
		value, ok := params.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
		if !ok {
			return nil, validation(fmt.Sprintf("undefined value in %q", assignment))
		}
		if _, isKey := key[name]; isKey {
			return nil, validation(fmt.Sprintf("cannot update key attribute %s", name))
		}
		item[name] = value
	}

	if i >= 0 {
		t.items[i] = item
	} else {
		t.items = append(t.items, item)
	}
	return &sdk.UpdateItemOutput{}, nil
}

func (c *Client) DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	t, err := c.begin("DeleteItem", params.TableName, params)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := t.find(params.Key); i >= 0 {
		t.items = append(t.items[:i], t.items[i+1:]...)
	}
	return &sdk.DeleteItemOutput{}, nil
}

func (c *Client) DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, _ ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error) {
	t, err := c.begin("DescribeTable", params.TableName, params)
	if err != nil {
		return nil, err
	}
	return &sdk.DescribeTableOutput{Table: describe(t.schema)}, nil
}

// keyOf extracts the primary key of item, failing when a key attribute is missing.
func (t *table) keyOf(item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	names := []string{t.schema.Key.PartitionKey.Name}
	if sk := t.schema.SortKeyName(); sk != "" {
		names = append(names, sk)
	}
	key := make(map[string]types.AttributeValue, len(names))
	for _, n := range names {
		v, ok := item[n]
		if !ok {
			return nil, validation(fmt.Sprintf("missing key attribute %s", n))
		}
		key[n] = v
	}
	return key, nil
}

func (t *table) find(key map[string]types.AttributeValue) int {
	if len(key) == 0 {
		return -1
	}
	for i, item := range t.items {
		if matchesKey(item, key) {
			return i
		}
	}
	return -1
}

// keyNames returns the attributes of a continuation key and the sort key of the queried index.
func (t *table) keyNames(indexName string) ([]string, string, error) {
	names := []string{t.schema.Key.PartitionKey.Name}
	sortKey := t.schema.SortKeyName()
	if sortKey != "" {
		names = append(names, sortKey)
	}
	if indexName == "" {
		return names, sortKey, nil
	}
	for _, idx := range t.schema.Indexes {
		if idx.Name != indexName {
			continue
		}
		names = appendName(names, idx.PartitionKey.Name)
		sortKey = ""
		if idx.SortKey != nil {
			sortKey = idx.SortKey.Name
			names = appendName(names, sortKey)
		}
		return names, sortKey, nil
	}
	return nil, "", validation(fmt.Sprintf("The table does not have the specified index: %s", indexName))
}

func appendName(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}

func matchesKey(item, key map[string]types.AttributeValue) bool {
	for k, v := range key {
		iv, ok := item[k]
		if !ok || !equal(iv, v) {
			return false
		}
	}
	return true
}

func project(item map[string]types.AttributeValue, expr *string, names map[string]string) (map[string]types.AttributeValue, error) {
	if aws.ToString(expr) == "" {
		return item, nil
	}
	attrs, err := projectionNames(*expr, names)
	if err != nil {
		return nil, err
	}
	out := make(map[string]types.AttributeValue, len(attrs))
	for _, a := range attrs {
		if v, ok := item[a]; ok {
			out[a] = v
		}
	}
	return out, nil
}

func describe(schema storagemodels.TableSchema) *types.TableDescription {
	attrDefs := map[string]types.ScalarAttributeType{}
	keySchema := func(pk storagemodels.KeyAttribute, sk *storagemodels.KeyAttribute) []types.KeySchemaElement {
		ks := []types.KeySchemaElement{{AttributeName: aws.String(pk.Name), KeyType: types.KeyTypeHash}}
		attrDefs[pk.Name] = scalarType(pk.Type)
		if sk != nil {
			ks = append(ks, types.KeySchemaElement{AttributeName: aws.String(sk.Name), KeyType: types.KeyTypeRange})
			attrDefs[sk.Name] = scalarType(sk.Type)
		}
		return ks
	}

	desc := &types.TableDescription{
		TableName:   aws.String(schema.Name),
		TableStatus: types.TableStatusActive,
		KeySchema:   keySchema(schema.Key.PartitionKey, schema.Key.SortKey),
	}
	for _, idx := range schema.Indexes {
		projection := &types.Projection{ProjectionType: types.ProjectionType(idx.Projection)}
		if idx.Projection == "" {
			projection.ProjectionType = types.ProjectionTypeAll
		}
		switch idx.Kind {
		case storagemodels.IndexLocal:
			desc.LocalSecondaryIndexes = append(desc.LocalSecondaryIndexes, types.LocalSecondaryIndexDescription{
				IndexName:  aws.String(idx.Name),
				KeySchema:  keySchema(idx.PartitionKey, idx.SortKey),
				Projection: projection,
			})
		default:
			desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes, types.GlobalSecondaryIndexDescription{
				IndexName:  aws.String(idx.Name),
				KeySchema:  keySchema(idx.PartitionKey, idx.SortKey),
				Projection: projection,
			})
		}
	}

	names := make([]string, 0, len(attrDefs))
	for n := range attrDefs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		desc.AttributeDefinitions = append(desc.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(n),
			AttributeType: attrDefs[n],
		})
	}
	return desc
}

func scalarType(t string) types.ScalarAttributeType {
	if t == "" {
		return types.ScalarAttributeTypeS
	}
	return types.ScalarAttributeType(t)
}

func notFound(tableName string) error {
	return &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: Table: " + tableName + " not found")}
}

func validation(msg string) error {
	return &smithy.GenericAPIError{Code: "ValidationException", Message: msg}
}
