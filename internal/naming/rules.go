package naming

// rule is one entry of the naming cascade. Rules are tried in order and the
// first one whose match returns true decides the name.
type rule struct {
	name  string
	match func(Context) bool
	apply func(Context) (string, error)
}

var rules = []rule{
	{
		name:  "tag",
		match: func(c Context) bool { return c.Parent == tagDir },
		apply: func(c Context) (string, error) {
			if c.Base == schemaBase {
				return "tagSchema", nil
			}
			return TagName(c.Base) + tagSuffix, nil
		},
	},
	{
		// One directory per tag variant: tag/<name>/schema.json.
		name:  "tag variant",
		match: func(c Context) bool { return c.Grandparent == tagDir },
		apply: func(c Context) (string, error) {
			if c.Base != schemaBase {
				return "", ErrExcluded
			}
			return TagName(c.Parent) + tagSuffix, nil
		},
	},
	{
		name:  "alias",
		match: func(c Context) bool { return c.Root == RootAlias && c.Parent == aliasMarker },
		apply: func(c Context) (string, error) {
			return lowerFirst(c.Processed) + suffix, nil
		},
	},
	{
		name:  "default",
		match: func(Context) bool { return true },
		apply: func(c Context) (string, error) {
			name := CamelCaseHyphens(c.Parent) + c.Processed
			if name == "" {
				name = unnamed
			}
			return name + suffix, nil
		},
	},
}
