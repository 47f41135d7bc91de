/*
Command htlcd runs hash time locked escrows on top of a local or shared
key value store.

Each invocation executes exactly one operation against the configured store
and prints its result as JSON.

	$ htlcd keygen --key alice.key
	$ htlcd mint --asset IOV --to <alice address> --amount 1000
	$ htlcd create --key alice.key --beneficiary <bob address> \
		--asset IOV --amount 300 --expiry 1700000000 --commitment <hex>
	$ htlcd claim 1 --preimage <hex>
*/
package main

import (
	"os"
)

func main() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		writeError(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}
