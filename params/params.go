// Package params defines the chaincfg-style network parameters this module
// runs against: custom magic bytes, a custom genesis block, and the
// consensus constants the verify/accept packages consult. There is no
// Bitcoin-mainnet compatibility goal; magic, genesis, and constants are
// specific to this node.
package params

import (
	"github.com/pandoraboxchain/rustheus/chain"
	"github.com/pandoraboxchain/rustheus/primitives"
	"github.com/pandoraboxchain/rustheus/script"
)

// Network magic bytes distinguish peers on different networks, the way
// chaincfg.Params.Net does for dcrd.
const (
	MainNetMagic uint32 = 0x06A4D09A
	TestNetMagic uint32 = 0x7E274A4D
)

// Consensus constants referenced throughout verify/.
const (
	// LockTimeThreshold mirrors chain.LockTimeThreshold; re-exported here
	// since verify/accept consult it as a network parameter conceptually,
	// even though its value is fixed across this module's networks.
	LockTimeThreshold = chain.LockTimeThreshold

	// CoinbaseMaturity is the number of confirmations a coinbase output
	// must accumulate before it may be spent.
	CoinbaseMaturity = 100

	// SubsidyHalvingInterval is the number of blocks between subsidy
	// halvings, matching Bitcoin's reward schedule.
	SubsidyHalvingInterval = 210000

	// BaseSubsidy is the block reward at height 0, in the smallest unit
	// ("satoshi" in spec.md's own vocabulary).
	BaseSubsidy = 50 * 100000000

	// MaxBlockSize and MinBlockSize bound a block's serialized size.
	MaxBlockSize = 4_000_000
	MinBlockSize = 81 // bare header + zero transactions is rejected elsewhere, this is a floor on sanity

	// MaxBlockSigops and MaxBlockSigopsCost bound aggregate per-block
	// sigop counts; sigops cost weights witness-program sigops by
	// WitnessScaleFactor.
	MaxBlockSigops     = 20000
	MaxBlockSigopsCost = MaxBlockSigops * WitnessScaleFactor

	// WitnessScaleFactor is the weight SegWit-style sigops-cost
	// accounting gives to witness data relative to base data.
	WitnessScaleFactor = 4

	// MaxTxSigops bounds a single transaction's sigop count.
	MaxTxSigops = 4000

	// MedianTimeBlocks is how many preceding headers HeaderMedianTimestamp
	// examines.
	MedianTimeBlocks = 11

	// MaxTransactionValue bounds value fields against the u64::MAX-saturating-add invariant spec.md §3 calls for.
	MaxTransactionValue = ^uint64(0)
)

// Params is the full set of per-network parameters, shaped after
// chaincfg.Params: plain exported fields, no behavior.
type Params struct {
	Name    string
	Magic   uint32
	Genesis chain.Block

	// GenesisCoinbaseProgram is the P2WPKH program the genesis coinbase
	// pays to. Genesis is built from it once, by newGenesisParams; changing
	// the field afterwards leaves Genesis as it is.
	GenesisCoinbaseProgram primitives.H160
}

// MainNetParams is this module's default network.
var MainNetParams = newGenesisParams("mainnet", MainNetMagic, defaultGenesisProgram())

// TestNetParams is the module's test network, sharing mainnet's genesis
// shape but a different magic so peers can't cross-connect.
var TestNetParams = newGenesisParams("testnet", TestNetMagic, defaultGenesisProgram())

func defaultGenesisProgram() primitives.H160 {
	// A fixed, well-known placeholder program, shared by MainNetParams and
	// TestNetParams.
	var h primitives.H160
	copy(h[:], []byte("rustheus-genesis"))
	return h
}

// newGenesisParams builds the genesis block per spec.md §6: version 1, no
// previous headers, merkle and witness-merkle recomputed, time 1234567,
// bits 5, nonce 6, a single coinbase paying BaseSubsidy to program.
func newGenesisParams(name string, magic uint32, program primitives.H160) Params {
	coinbase := chain.PaymentTransaction{
		Version: 1,
		Inputs: []chain.TransactionInput{{
			PreviousOutput: chain.NullOutPoint,
			ScriptSig:      script.PushInt(0),
			Sequence:       chain.FinalSequence,
		}},
		Outputs: []chain.TransactionOutput{{
			Value:        BaseSubsidy,
			ScriptPubKey: script.BuildP2WPKH(program),
		}},
		LockTime: 0,
	}

	block := chain.Block{
		Header: chain.BlockHeader{
			Version:            1,
			PreviousHeaderHash: nil,
			Time:               1234567,
			Bits:               5,
			Nonce:              6,
		},
		Transactions: []chain.PaymentTransaction{coinbase},
	}
	block.Header.MerkleRootHash = block.ComputeMerkleRoot()
	block.Header.WitnessMerkleRootHash = block.ComputeWitnessMerkleRoot()

	return Params{
		Name:                   name,
		Magic:                  magic,
		Genesis:                block,
		GenesisCoinbaseProgram: program,
	}
}

// Subsidy returns the block subsidy at height, halving every
// SubsidyHalvingInterval blocks down to zero.
func Subsidy(height uint32) uint64 {
	halvings := height / SubsidyHalvingInterval
	if halvings >= 64 {
		return 0
	}
	return BaseSubsidy >> halvings
}
