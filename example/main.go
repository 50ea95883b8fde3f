// Example usage of the Wyvern Exchange SDK Go
package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	wyvernexchange "github.com/wyvernlabs/wyvern-exchange-sdk-go"
)

func main() {
	// Load credentials from .env if present
	_ = godotenv.Load()

	config := wyvernexchange.ClientConfig{
		Host:       getenv("WYVERN_API_HOST", "https://api.wyvernexchange.io"),
		APIKey:     os.Getenv("WYVERN_API_KEY"),
		ChainID:    wyvernexchange.ChainIDEthereumMainnet,
		RPCURL:     os.Getenv("ETH_RPC_URL"),     // Optional; enables signing and on-chain checks
		PrivateKey: os.Getenv("ETH_PRIVATE_KEY"), // Optional; required for signing
	}

	client, err := wyvernexchange.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	maker := getenv("MAKER_ADDRESS", "0x0000000000000000000000000000000000000001")
	collection := getenv("COLLECTION_ADDRESS", "0x06012c8cf97bead5deae237070f9587f8e7a266d")

	// Example: build a fixed-price listing for one token
	fmt.Println("Building sell order...")
	asset := wyvernexchange.NewAssetDescriptor(
		wyvernexchange.StandardERC721,
		collection,
		big.NewInt(1234),
		big.NewInt(1),
	)

	sellOrder, err := client.BuildSellOrder(ctx, &wyvernexchange.SellOrderRequest{
		Asset:          asset,
		Maker:          maker,
		StartAmount:    decimal.RequireFromString("1.2"),
		ExpirationTime: time.Now().Add(24 * time.Hour).Truncate(time.Second),
	})
	if err != nil {
		log.Fatalf("Failed to build sell order: %v", err)
	}

	hashed, err := client.HashOrder(sellOrder)
	if err != nil {
		log.Fatalf("Failed to hash order: %v", err)
	}
	fmt.Printf("Sell order hash: %s\n", hashed.Hash)
	fmt.Printf("Base price (wei): %s\n", sellOrder.BasePrice)

	// Example: build the matching buy side and validate the pair
	fmt.Println("\nBuilding matching buy order...")
	taker := getenv("TAKER_ADDRESS", "0x0000000000000000000000000000000000000002")
	buyOrder, err := client.MirrorOrder(sellOrder, &wyvernexchange.MirrorRequest{
		Counterparty: taker,
		Recipient:    taker,
	})
	if err != nil {
		log.Fatalf("Failed to mirror order: %v", err)
	}

	buyHashed, err := client.HashOrder(buyOrder)
	if err != nil {
		log.Fatalf("Failed to hash buy order: %v", err)
	}

	result, err := client.ValidateMatch(ctx, buyHashed, hashed)
	if err != nil {
		log.Printf("Match validation error: %v", err)
	} else if result.Compatible {
		fmt.Println("Orders match")
	} else {
		fmt.Printf("Orders do not match: %s (%s)\n", result.Reason, result.Detail)
	}

	// Example: current price of the listing
	price, err := client.EstimateCurrentPrice(sellOrder, 0, wyvernexchange.RoundCeil)
	if err != nil {
		log.Printf("Failed to estimate price: %v", err)
	} else {
		fmt.Printf("\nCurrent fee-adjusted price (wei): %s\n", price)
	}

	// Example: sign and post when a key is configured
	if config.PrivateKey != "" {
		fmt.Println("\nPosting order...")
		signed, err := client.PostOrder(ctx, sellOrder)
		if err != nil {
			log.Printf("Failed to post order: %v", err)
		} else {
			fmt.Printf("Posted order %s (v=%d)\n", signed.Hash, signed.Signature.V)
		}
	}

	// Example: stream collection events
	fmt.Println("\nStreaming collection events for 30s...")
	ws := wyvernexchange.NewWSClient(wyvernexchange.WSConfig{
		Endpoint: os.Getenv("WYVERN_WS_ENDPOINT"),
		APIKey:   config.APIKey,
		ChainID:  config.ChainID,
		OnMessage: func(_ int, data []byte) {
			event, err := wyvernexchange.ParseOrderEvent(data)
			if err != nil {
				log.Printf("Bad event: %v", err)
				return
			}
			fmt.Printf("Event %s at %d\n", event.Channel, event.Timestamp)
		},
		OnError: func(err error) {
			log.Printf("Stream error: %v", err)
		},
	})

	if err := ws.Connect(ctx); err != nil {
		log.Printf("Failed to connect stream: %v", err)
		return
	}
	defer ws.Disconnect()

	if err := ws.SubscribeCollectionListings(collection); err != nil {
		log.Printf("Failed to subscribe: %v", err)
		return
	}

	time.Sleep(30 * time.Second)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
