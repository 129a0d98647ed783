// Package birdsy is a client for the parts of the Birdsy REST API needed to
// archive recorded episodes: password authentication, the per-day episode
// counts, the paginated per-day episode listing, deletion by ID and raw
// artifact downloads.
//
// Catalog reads degrade instead of failing hard: on error they return the
// error together with a usable value (an empty day list, a zero count or the
// episodes gathered so far), and the caller decides whether to continue.
//
//	c := birdsy.New(birdsy.Options{BaseURL: birdsy.DefaultBaseURL})
//	token, err := c.Authenticate(ctx, email, password)
//	if err != nil {
//		log.Fatal(err)
//	}
//	days, err := c.DayCounts(ctx, token)
package birdsy
