package checkpoint

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/spacemeshos/go-evmbridge/common/types"
)

type Checkpoint struct {
	Version string    `json:"version"`
	Data    InnerData `json:"data"`
}

type InnerData struct {
	CheckpointId string `json:"id"`
	// Block is the latest block. It is absent in checkpoints taken before the first block.
	Block    *Block                   `json:"block,omitempty"`
	Accounts []Account                `json:"accounts"`
	Balances []Balance                `json:"balances"`
	Tokens   []Token                  `json:"tokens"`
	Links    []Link                   `json:"links"`
	Store    map[string]hexutil.Bytes `json:"store"`
}

type Block struct {
	Number uint64        `json:"number"`
	Hash   common.Hash   `json:"hash"`
	Header hexutil.Bytes `json:"header"`
}

type Account struct {
	ID      uint64         `json:"id"`
	Address common.Address `json:"address"`
	Nonce   uint64         `json:"nonce"`
	// Balance in wei as a decimal string.
	Balance string `json:"balance"`
}

type Balance struct {
	ID      uint64     `json:"id"`
	Owner   types.Name `json:"owner"`
	Balance string     `json:"balance"`
}

type Token struct {
	Owner  types.Name `json:"owner"`
	Amount uint64     `json:"amount"`
}

type Link struct {
	Address common.Address `json:"address"`
	Owner   types.Name     `json:"owner"`
}

const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://spacemesh.io/evmbridge.checkpoint.schema.json.1.0",
  "type": "object",
  "required": ["version", "data"],
  "properties": {
    "version": {"type": "string"},
    "data": {
      "type": "object",
      "required": ["id", "accounts", "balances", "tokens", "links", "store"],
      "properties": {
        "id": {"type": "string"},
        "block": {
          "type": "object",
          "required": ["number", "hash", "header"],
          "properties": {
            "number": {"type": "integer", "minimum": 1},
            "hash": {"$ref": "#/$defs/hash"},
            "header": {"$ref": "#/$defs/hex"}
          }
        },
        "accounts": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id", "address", "nonce", "balance"],
            "properties": {
              "id": {"type": "integer", "minimum": 0},
              "address": {"$ref": "#/$defs/address"},
              "nonce": {"type": "integer", "minimum": 0},
              "balance": {"$ref": "#/$defs/wei"}
            }
          }
        },
        "balances": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id", "owner", "balance"],
            "properties": {
              "id": {"type": "integer", "minimum": 0},
              "owner": {"$ref": "#/$defs/name"},
              "balance": {"$ref": "#/$defs/wei"}
            }
          }
        },
        "tokens": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["owner", "amount"],
            "properties": {
              "owner": {"$ref": "#/$defs/name"},
              "amount": {"type": "integer", "minimum": 0}
            }
          }
        },
        "links": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["address", "owner"],
            "properties": {
              "address": {"$ref": "#/$defs/address"},
              "owner": {"$ref": "#/$defs/name"}
            }
          }
        },
        "store": {
          "type": "object",
          "additionalProperties": {"$ref": "#/$defs/hex"}
        }
      }
    }
  },
  "$defs": {
    "hex": {"type": "string", "pattern": "^0x([0-9a-fA-F]{2})*$"},
    "hash": {"type": "string", "pattern": "^0x[0-9a-fA-F]{64}$"},
    "address": {"type": "string", "pattern": "^0x[0-9a-fA-F]{40}$"},
    "wei": {"type": "string", "pattern": "^(0|[1-9][0-9]*)$"},
    "name": {"type": "string", "pattern": "^[a-z1-5.]{0,13}$"}
  }
}`
