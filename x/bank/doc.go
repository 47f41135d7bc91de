/*
Package bank defines a simple implementation of moving assets
between accounts.

There is no logic in the assets, except that the balance
of any asset may not go below zero. Balances live in the same
store as the escrows, so a transfer is committed or discarded
together with the escrow change that caused it.
*/
package bank
