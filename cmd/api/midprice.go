package main

import (
	"encoding/json"
	"net/url"
	"os"
	"strconv"

	"exapi-service/internal/application/dto"
	"exapi-service/internal/application/services"
	"exapi-service/pkg/utils"

	"github.com/spf13/cobra"
)

func newMidPriceCmd(opts *rootOptions) *cobra.Command {
	var base, quote string
	var depth int

	cmd := &cobra.Command{
		Use:   "midprice <exchange>",
		Short: "Fetch one governed mid price and print it as JSON",
		Example: `  exapi midprice kraken --base ETH --quote BTC
  exapi midprice binance --base BTC --quote USDT --depth 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			// Los logs van a stderr para no mezclarse con el JSON
			if err := initLogging(cfg, os.Stderr); err != nil {
				return err
			}

			query := url.Values{"base": {base}, "quote": {quote}}
			if depth > 0 {
				query.Set("depth", strconv.Itoa(depth))
			}
			request, err := dto.NewMidPriceRequest(args[0], query)
			if err != nil {
				return err
			}

			a, err := buildApp(cfg, utils.SystemClock{})
			if err != nil {
				return err
			}

			return runMidPrice(cmd, a.prices, request)
		},
	}

	cmd.Flags().StringVar(&base, "base", dto.DefaultBase, "base currency code")
	cmd.Flags().StringVar(&quote, "quote", dto.DefaultQuote, "quote currency code")
	cmd.Flags().IntVar(&depth, "depth", 0, "orderbook depth used for the mid price (default from cache.default_depth)")

	return cmd
}

// runMidPrice imprime la misma respuesta que GET /{exchange}/midprice
func runMidPrice(cmd *cobra.Command, prices *services.PriceCache, request *dto.MidPriceRequest) error {
	mapper := dto.NewPriceMapper()

	var resp *dto.MidPriceResponse
	price, err := prices.Lookup(cmd.Context(), request.Exchange, request.Base, request.Quote, request.Depth)
	if err != nil {
		resp = mapper.ToMidPriceError(err)
	} else {
		resp = mapper.ToMidPriceResponse(price)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if encErr := encoder.Encode(resp); encErr != nil {
		return encErr
	}

	return err
}
