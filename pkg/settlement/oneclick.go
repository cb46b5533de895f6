package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"token-swap/pkg/logger"
	"token-swap/pkg/types"
)

// OneClick settles a swap by requesting a dry quote from the NEAR Intents
// 1Click API. An obtained quote counts as success; no deposit is made.
type OneClick struct {
	client    *oneclick.APIClient
	jwtToken  string
	recipient string
	refundTo  string
	log       *zap.Logger
}

// NewOneClick creates a 1Click backed settler
func NewOneClick(jwtToken, recipient, refundTo string, log *zap.Logger) *OneClick {
	if refundTo == "" {
		refundTo = recipient
	}
	return &OneClick{
		client:    oneclick.NewAPIClient(oneclick.NewConfiguration()),
		jwtToken:  jwtToken,
		recipient: recipient,
		refundTo:  refundTo,
		log:       logger.OrNop(log),
	}
}

func (o *OneClick) authContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oneclick.ContextAccessToken, o.jwtToken)
}

func (o *OneClick) Settle(ctx context.Context, req types.SwapRequest) (*Receipt, error) {
	ctx = o.authContext(ctx)

	tokens, httpResp, err := o.client.OneClickAPI.GetTokens(ctx).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	httpResp.Body.Close()

	source, err := matchToken(tokens, req.FromCurrency)
	if err != nil {
		return nil, fmt.Errorf("source token error: %w", err)
	}
	dest, err := matchToken(tokens, req.ToCurrency)
	if err != nil {
		return nil, fmt.Errorf("destination token error: %w", err)
	}

	amount, err := toSmallestUnit(req.FromAmount, float64(source.GetDecimals()))
	if err != nil {
		return nil, err
	}

	quoteReq := oneclick.NewQuoteRequest(
		true,          // dry
		"EXACT_INPUT", // swapType
		100,           // slippageTolerance (1%)
		source.GetAssetId(),
		"ORIGIN_CHAIN",
		dest.GetAssetId(),
		amount,
		o.refundTo,
		"ORIGIN_CHAIN",
		o.recipient,
		"DESTINATION_CHAIN",
		time.Now().Add(24*time.Hour),
	)

	resp, httpResp, err := o.client.OneClickAPI.GetQuote(ctx).QuoteRequest(*quoteReq).Execute()
	if err != nil {
		if httpResp == nil {
			return nil, fmt.Errorf("failed to get quote from API: %w", err)
		}
		defer httpResp.Body.Close()
		failure := quoteFailure(httpResp.StatusCode, httpResp.Body, err)
		o.log.Warn("1click quote failed",
			zap.String("submission_id", req.SubmissionID),
			zap.Int("status", httpResp.StatusCode),
			zap.Error(failure))
		return nil, failure
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}
	if resp == nil {
		return nil, fmt.Errorf("empty quote response")
	}

	quote := resp.GetQuote()
	receipt := &Receipt{
		SubmissionID: req.SubmissionID,
		Reference:    source.GetAssetId() + "->" + dest.GetAssetId(),
		AmountOut:    quote.GetAmountOutFormatted(),
		SettledAt:    time.Now(),
	}
	o.log.Info("1click dry quote obtained",
		zap.String("submission_id", req.SubmissionID),
		zap.String("amount_out", receipt.AmountOut))
	return receipt, nil
}

// matchToken finds a token by symbol, exact match first
func matchToken(tokens []oneclick.TokenResponse, symbol string) (*oneclick.TokenResponse, error) {
	for i := range tokens {
		if tokens[i].GetSymbol() == symbol {
			return &tokens[i], nil
		}
	}
	for i := range tokens {
		if strings.EqualFold(tokens[i].GetSymbol(), symbol) {
			return &tokens[i], nil
		}
	}
	return nil, fmt.Errorf("token '%s' not found", symbol)
}

// toSmallestUnit converts a decimal amount into integer base units
func toSmallestUnit(amount string, decimals float64) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return "", fmt.Errorf("invalid amount: %w", err)
	}
	return d.Shift(int32(decimals)).Truncate(0).String(), nil
}

// quoteFailure classifies a failed quote response. Only 4xx answers are
// rejections of the swap itself; anything else is a transport problem.
func quoteFailure(status int, body io.Reader, err error) error {
	msg := apiErrorMessage(body)
	if status >= 400 && status < 500 {
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrRejected, msg)
		}
		return fmt.Errorf("%w: status %d", ErrRejected, status)
	}
	if msg != "" {
		return fmt.Errorf("API error (status %d): %s: %w", status, msg, err)
	}
	return fmt.Errorf("failed to get quote from API (status %d): %w", status, err)
}

func apiErrorMessage(body io.Reader) string {
	bodyBytes, err := io.ReadAll(body)
	if err != nil || len(bodyBytes) == 0 {
		return ""
	}

	var errorResp map[string]interface{}
	if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
		if message, ok := errorResp["message"].(string); ok {
			return message
		}
		if errs, ok := errorResp["errors"]; ok {
			return fmt.Sprintf("%v", errs)
		}
	}
	return string(bodyBytes)
}
