// Package vecrag embeds the vecrag retrieval service in a Go program.
//
// The client stores documents in SQLite, ranks them against a query by cosine
// similarity and answers chat messages with the retrieved context. Search and
// chat share a per-user request quota that resets on a fixed interval.
//
//	client, _ := vecrag.New(ctx,
//	    vecrag.WithSQLite("data/vecrag.db"),
//	    vecrag.WithEmbedder(myEmbedder),
//	    vecrag.WithGenerator(myGenerator),
//	)
//	defer client.Close()
//
//	id, _ := client.Store(ctx, "The sky is blue")
//	res, _ := client.Search(ctx, vecrag.SearchRequest{UserID: "alice", Text: "sky"})
//	reply, _ := client.Chat(ctx, "alice", "What color is the sky?")
package vecrag
