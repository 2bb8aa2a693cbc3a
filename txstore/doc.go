// Package txstore is a durable store of personal income / expense
// transactions backed by two files: an append-only data file and an index
// file.
//
// # Store Structure
//
// A Store for account "alice" consists of two files in DataDir:
//   - "alice.dat": concatenated binary records, addressed by byte offset
//   - "alice.idx": a big-endian int32 count followed by that many
//     24-byte entries (16-byte id, int64 offset into the data file)
//
// Records are never rewritten in place because their encoded size varies
// with the description. An update marks the old record deleted (a single
// byte flip) and appends the merged record at the end of the data file,
// then rewrites the index. The old bytes are garbage until Clear(false)
// compacts both files.
//
// # Basic Usage
//
//	s := &txstore.Store{
//	    DataDir: "./data",
//	    Account: "alice",
//	}
//	err := txstore.OpenStore(s)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	amount := decimal.RequireFromString("12.50")
//	tx := txstore.NewTransaction(txstore.Expense, txstore.Food, amount, "lunch", time.Now())
//	err = s.Add(tx)
//
//	for _, tx := range s.List(false) {
//	    // ...
//	}
//
// The whole index and every live record are kept in memory after
// OpenStore. The data file is only read when the store is opened.
//
// # Thread Safety
//
// The Store is safe for concurrent use within one process. Two processes
// must not open the same account at the same time.
package txstore
