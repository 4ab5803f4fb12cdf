package shopify

// ScriptTagCreateMutation registers the storefront add-ons script
const ScriptTagCreateMutation = `
mutation scriptTagCreate($input: ScriptTagInput!) {
  scriptTagCreate(input: $input) {
    scriptTag {
      id
      src
    }
    userErrors {
      field
      message
    }
  }
}
`

// ScriptTagInput represents the input for creating a script tag
type ScriptTagInput struct {
	Src          string `json:"src"`
	DisplayScope string `json:"displayScope"`
	Cache        bool   `json:"cache"`
}
