package shopify

// ProductByHandleQuery resolves a product handle to its global ID
const ProductByHandleQuery = `
query productByHandle($handle: String!) {
  productByHandle(handle: $handle) {
    id
  }
}
`
