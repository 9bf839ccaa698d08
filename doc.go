// Package qqcore is a client-side orchestration layer for a stateful
// QQ-like instant-messaging protocol.
//
// It logs one or more accounts into long-lived sessions, maintains
// per-account social-graph snapshots (friends, friend groups, chat
// groups, members), addresses entities through re-resolvable
// selectors, builds and dispatches structured messages with recallable
// receipts, and supervises the whole multi-account process through a
// staged startup/shutdown lifecycle. The wire protocol itself lives
// behind the interfaces.SessionProvider boundary.
//
// Example:
//
//	opts := qqcore.NewOptions(provider)
//
//	handle, err := qqcore.Login(ctx, 12345678, qqcore.Password{Secret: "secret"}, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := handle.Client()
//
//	list, err := client.GetFriendList(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for friend := range list.Friends() {
//	    fmt.Println(friend.Nickname)
//	}
//
//	receipt, err := client.Friend(87654321).Send(ctx, message.New().Text("hello"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = receipt.Recall(ctx)
//
//	// Keep the process resident until the connection drops.
//	_ = client.Alive(ctx)
//
// Multi-account processes use the Service supervisor instead of
// driving Login directly:
//
//	svc := qqcore.NewService([]qqcore.AccountLogin{
//	    {Uin: 12345678, Method: qqcore.Password{Secret: "secret"}},
//	}, opts)
//	go func() {
//	    <-interrupt
//	    svc.Shutdown()
//	}()
//	if err := svc.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package qqcore
