package entitygraph

func entityNodeFromProps(props map[string]any) EntityNode {
	return EntityNode{
		ID:     strProp(props, "id"),
		Kind:   strProp(props, "kind"),
		Name:   strProp(props, "name"),
		Weight: floatProp(props, "weight"),
	}
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func floatProp(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}
