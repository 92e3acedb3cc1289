package externalapi

// UTXOEntry houses details about an individual transaction output in a utxo
// set such as whether or not it was contained in a coinbase tx, the daa
// score of the block that accepts the tx, its public key script, and how
// much it pays.
type UTXOEntry interface {
	Amount() uint64
	ScriptPublicKey() *ScriptPublicKey
	BlockDAAScore() uint64
	IsCoinbase() bool
	Equal(other UTXOEntry) bool
}
