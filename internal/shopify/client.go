// Package shopify talks to the upstream commerce platform through its GraphQL
// admin API. The platform owns ground truth for order state: holds can be
// released and orders cancelled out-of-band, so callers must re-check it
// instead of trusting local state.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const apiVersion = "2024-10"

// ErrCustomerNotFound is returned when no customer matches the given email.
var ErrCustomerNotFound = errors.New("shopify: customer not found")

type Client struct {
	httpClient  *http.Client
	storeDomain string
	creds       CredentialSource
	logger      *slog.Logger
}

func NewClient(storeDomain string, creds CredentialSource, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		storeDomain: storeDomain,
		creds:       creds,
		logger:      logger,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.storeDomain, apiVersion)
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("shopify: marshal request: %w", err)
	}

	token, err := c.creds.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("shopify: access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("shopify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopify: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("shopify: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "shopify API returned non-200", "status", resp.StatusCode)
		return fmt.Errorf("shopify: unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("shopify: decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("shopify: graphql error: %s", envelope.Errors[0].Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("shopify: decode data: %w", err)
		}
	}
	return nil
}

func orderGID(orderID string) string {
	return "gid://shopify/Order/" + orderID
}

type fulfillmentOrderNode struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Client) fulfillmentOrders(ctx context.Context, orderID string) ([]fulfillmentOrderNode, error) {
	const query = `
		query getFulfillmentOrders($orderId: ID!) {
			order(id: $orderId) {
				fulfillmentOrders(first: 10) {
					nodes {
						id
						status
					}
				}
			}
		}`
	var data struct {
		Order *struct {
			FulfillmentOrders struct {
				Nodes []fulfillmentOrderNode `json:"nodes"`
			} `json:"fulfillmentOrders"`
		} `json:"order"`
	}
	if err := c.do(ctx, query, map[string]any{"orderId": orderGID(orderID)}, &data); err != nil {
		return nil, err
	}
	if data.Order == nil {
		return nil, nil
	}
	return data.Order.FulfillmentOrders.Nodes, nil
}

// IsOrderOnHold reports live hold state. An order the platform no longer knows
// about counts as not on hold; the caller syncs local state accordingly.
func (c *Client) IsOrderOnHold(ctx context.Context, orderID string) (bool, error) {
	nodes, err := c.fulfillmentOrders(ctx, orderID)
	if err != nil {
		return false, err
	}
	for _, fo := range nodes {
		if fo.Status == "ON_HOLD" {
			return true, nil
		}
	}
	return false, nil
}

// ReleaseOrderHold releases every fulfillment hold on the order. Releasing an
// already-released order is a no-op.
func (c *Client) ReleaseOrderHold(ctx context.Context, orderID string) error {
	nodes, err := c.fulfillmentOrders(ctx, orderID)
	if err != nil {
		return err
	}
	const mutation = `
		mutation fulfillmentOrderReleaseHold($id: ID!) {
			fulfillmentOrderReleaseHold(id: $id) {
				fulfillmentOrder {
					id
					status
				}
				userErrors {
					field
					message
				}
			}
		}`
	for _, fo := range nodes {
		if fo.Status != "ON_HOLD" {
			continue
		}
		var data struct {
			FulfillmentOrderReleaseHold struct {
				UserErrors []userError `json:"userErrors"`
			} `json:"fulfillmentOrderReleaseHold"`
		}
		if err := c.do(ctx, mutation, map[string]any{"id": fo.ID}, &data); err != nil {
			return err
		}
		if len(data.FulfillmentOrderReleaseHold.UserErrors) > 0 {
			return fmt.Errorf("shopify: release hold: %s", data.FulfillmentOrderReleaseHold.UserErrors[0].Message)
		}
	}
	return nil
}

// CancelOrder cancels the order in the platform and notifies the customer.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	const mutation = `
		mutation orderCancel($orderId: ID!, $reason: OrderCancelReason!, $notifyCustomer: Boolean!) {
			orderCancel(orderId: $orderId, reason: $reason, notifyCustomer: $notifyCustomer) {
				orderCancelUserErrors {
					field
					message
				}
			}
		}`
	var data struct {
		OrderCancel struct {
			OrderCancelUserErrors []userError `json:"orderCancelUserErrors"`
		} `json:"orderCancel"`
	}
	vars := map[string]any{
		"orderId":        orderGID(orderID),
		"reason":         "OTHER",
		"notifyCustomer": true,
	}
	if err := c.do(ctx, mutation, vars, &data); err != nil {
		return err
	}
	if len(data.OrderCancel.OrderCancelUserErrors) > 0 {
		return fmt.Errorf("shopify: cancel order: %s", data.OrderCancel.OrderCancelUserErrors[0].Message)
	}
	return nil
}

func (c *Client) findCustomerID(ctx context.Context, email string) (string, error) {
	const query = `
		query findCustomer($query: String!) {
			customers(first: 1, query: $query) {
				nodes {
					id
				}
			}
		}`
	var data struct {
		Customers struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"customers"`
	}
	if err := c.do(ctx, query, map[string]any{"query": "email:" + email}, &data); err != nil {
		return "", err
	}
	if len(data.Customers.Nodes) == 0 {
		return "", ErrCustomerNotFound
	}
	return data.Customers.Nodes[0].ID, nil
}

// TagCustomer adds a tag to the customer owning the email.
func (c *Client) TagCustomer(ctx context.Context, email, tag string) error {
	customerID, err := c.findCustomerID(ctx, email)
	if err != nil {
		return err
	}
	const mutation = `
		mutation tagsAdd($id: ID!, $tags: [String!]!) {
			tagsAdd(id: $id, tags: $tags) {
				userErrors {
					field
					message
				}
			}
		}`
	var data struct {
		TagsAdd struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"tagsAdd"`
	}
	if err := c.do(ctx, mutation, map[string]any{"id": customerID, "tags": []string{tag}}, &data); err != nil {
		return err
	}
	if len(data.TagsAdd.UserErrors) > 0 {
		return fmt.Errorf("shopify: tag customer: %s", data.TagsAdd.UserErrors[0].Message)
	}
	return nil
}

// SetCustomerMetafield writes a metafield on the customer owning the email.
// The store's automation keys off it to skip future on-hold creation.
func (c *Client) SetCustomerMetafield(ctx context.Context, email, namespace, key, value string) error {
	customerID, err := c.findCustomerID(ctx, email)
	if err != nil {
		return err
	}
	const mutation = `
		mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
			metafieldsSet(metafields: $metafields) {
				userErrors {
					field
					message
				}
			}
		}`
	var data struct {
		MetafieldsSet struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	vars := map[string]any{
		"metafields": []map[string]any{{
			"ownerId":   customerID,
			"namespace": namespace,
			"key":       key,
			"type":      "boolean",
			"value":     value,
		}},
	}
	if err := c.do(ctx, mutation, vars, &data); err != nil {
		return err
	}
	if len(data.MetafieldsSet.UserErrors) > 0 {
		return fmt.Errorf("shopify: set metafield: %s", data.MetafieldsSet.UserErrors[0].Message)
	}
	return nil
}
