package controller

import "github.com/xeipuuv/gojsonschema"

// Request shapes only. Required-ness and formats are checked by the
// services so the error messages stay the ones the site shows.
var (
	newsletterSendSchema = mustSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":     map[string]interface{}{"type": []string{"string", "null"}},
			"subtitle":  map[string]interface{}{"type": []string{"string", "null"}},
			"content":   map[string]interface{}{"type": []string{"string", "null"}},
			"testEmail": map[string]interface{}{"type": []string{"string", "null"}},
			"format":    map[string]interface{}{"type": []string{"string", "null"}, "pattern": "^(?i:html|markdown)?$"},
		},
	})

	emailSchema = mustSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"email":  map[string]interface{}{"type": []string{"string", "null"}},
			"source": map[string]interface{}{"type": "string", "maxLength": 64},
		},
	})

	blogSubmissionSchema = mustSchema(map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"email":       map[string]interface{}{"type": []string{"string", "null"}},
			"profileLink": map[string]interface{}{"type": []string{"string", "null"}},
			"blogLink":    map[string]interface{}{"type": []string{"string", "null"}},
		},
	})
)

func mustSchema(schema map[string]interface{}) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		panic(err)
	}
	return s
}
