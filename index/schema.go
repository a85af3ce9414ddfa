package index

// The declared schema is fixed up front: dynamically named metadata lives
// in nested {key, value} arrays, identifiers are keyword fields, and
// free-text fields carry a keyword sibling for exact matching.

func keyword() map[string]any {
	return map[string]any{"type": "keyword"}
}

func textKeyword() map[string]any {
	return map[string]any{
		"type": "text",
		"fields": map[string]any{
			"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
		},
	}
}

// kvNested is the shape of every flattened metadata field.
func kvNested() map[string]any {
	return map[string]any{
		"type": "nested",
		"properties": map[string]any{
			"key":   keyword(),
			"value": textKeyword(),
		},
	}
}

// Properties returns the declared field mapping for action documents.
func Properties() map[string]any {
	return map[string]any{
		"id":          keyword(),
		"timestamp":   map[string]any{"type": "date"},
		"companyId":   keyword(),
		"clientId":    keyword(),
		"app":         keyword(),
		"environment": keyword(),
		"sessionId":   keyword(),
		"traceIds":    keyword(),
		"framework": map[string]any{
			"properties": map[string]any{
				"name":    keyword(),
				"version": keyword(),
			},
		},
		"action": map[string]any{
			"properties": map[string]any{
				"id":     keyword(),
				"type":   keyword(),
				"verb":   keyword(),
				"object": textKeyword(),
			},
		},
		"agents":  entityMapping(),
		"targets": entityMapping(),
		"request": map[string]any{
			"type": "nested",
			"properties": map[string]any{
				"key":    keyword(),
				"parent": keyword(),
				"value":  textKeyword(),
			},
		},
		"response": map[string]any{
			"properties": map[string]any{
				"status":  map[string]any{"type": "integer"},
				"time":    map[string]any{"type": "float"},
				"body":    kvNested(),
				"headers": kvNested(),
			},
		},
		"changes": map[string]any{
			"type": "nested",
			"properties": map[string]any{
				"model":     keyword(),
				"operation": keyword(),
				"id":        keyword(),
				"path":      textKeyword(),
				"before":    textKeyword(),
				"after":     textKeyword(),
				"meta":      kvNested(),
			},
		},
		"cost": map[string]any{
			"properties": map[string]any{
				"amount":   map[string]any{"type": "float"},
				"currency": keyword(),
				"components": map[string]any{
					"type": "nested",
					"properties": map[string]any{
						"type":   keyword(),
						"key":    keyword(),
						"amount": map[string]any{"type": "float"},
					},
				},
				"meta": kvNested(),
			},
		},
		"meta": kvNested(),
	}
}

func entityMapping() map[string]any {
	return map[string]any{
		"type": "nested",
		"properties": map[string]any{
			"id":   keyword(),
			"type": keyword(),
			"name": keyword(),
			"meta": kvNested(),
		},
	}
}

// Mappings returns the declared mappings object as stored in the index
// template and compared against live indices.
func Mappings() map[string]any {
	return map[string]any{"properties": Properties()}
}

// Template builds the dynamic index template body targeting pattern.
func Template(pattern string, shards, replicas int) map[string]any {
	return map[string]any{
		"index_patterns": []any{pattern},
		"template": map[string]any{
			"settings": map[string]any{
				"number_of_shards":   shards,
				"number_of_replicas": replicas,
			},
			"mappings": Mappings(),
		},
	}
}
