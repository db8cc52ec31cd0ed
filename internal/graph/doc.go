// Package graph signs a user in with the Microsoft Entra ID device-code flow and
// calls Microsoft Graph on their behalf.
//
// A Session bundles the settings it was built from, the token credential and the
// Graph client bound to that credential. Sessions are immutable; a Manager holds
// the current one and swaps it atomically on re-initialization, so a call that is
// already running finishes against the session it started with.
//
// Token acquisition is lazy: nothing is sent to the identity provider until the
// first token or Graph request, at which point the DeviceCodePrompter is asked to
// show the verification URL and user code, and the call blocks until sign-in
// completes.
//
// Example:
//
//	mgr := graph.NewManager(graph.WithLogger(slogger))
//	err := mgr.Initialize(&graph.Settings{
//	    ClientID:        "...",
//	    TenantID:        "common",
//	    GraphUserScopes: []string{"user.read", "mail.read"},
//	}, graph.WriterPrompter{W: os.Stdout})
//	user, err := mgr.CurrentUser(ctx)
package graph
