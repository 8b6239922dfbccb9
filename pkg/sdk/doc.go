// Package sdk is a Go client for a remote searchlang server.
//
//	c, _ := sdk.New("http://localhost:8080", sdk.WithSessionKey(key))
//	res, _ := c.Parse(ctx, "index=main error", searchlang.Intention{Name: "negateterm", Arg: json.RawMessage(`"debug"`)})
//	fmt.Println(res.Search)
//
// Use the root searchlang package to parse in-process instead.
package sdk
