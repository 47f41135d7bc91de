/*
Package htlc implements a hash time locked escrow.

Funds are deposited under a combined hash lock and time lock. They are
released to the beneficiary by revealing a preimage of the stored commitment
before the escrow expires, or returned to the depositor by anyone once the
escrow has expired.

The algorithm is as follows:
1. Depositor generates a preimage of PreimageLength bytes and keeps it secret.
2. Depositor makes a sha256 hash out of the preimage.
3. With this hash the depositor creates an escrow, moving the funds into the
custody account.
4. Anyone knowing the preimage can release the funds to the beneficiary, if
the escrow didn't expire yet.
5. Once the escrow expired, anyone can return the funds to the depositor.
6. The escrow is deleted on success of either step 4 or step 5.

Escrows are stored with a liveness window that is refreshed on every access,
so an escrow that is in use is never garbage collected by the store.
*/
package htlc
