package models

// Module is an ordered grouping of lessons within a course
type Module struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Order int    `json:"order" yaml:"order"`
}

// Fields returns the stored fields of the module. The id is the document key and is not duplicated.
func (m *Module) Fields() map[string]any {
	return map[string]any{
		"title": m.Title,
		"order": m.Order,
	}
}

// ModuleFromDocument decodes a stored module document
func ModuleFromDocument(doc Document) (*Module, error) {
	var module Module
	if err := doc.Decode(&module); err != nil {
		return nil, err
	}
	module.ID = doc.ID
	return &module, nil
}
