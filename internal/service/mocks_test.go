package service

import (
	"context"

	"beauty-kart/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockCartGateway is a mock implementation of gateway.CartGateway.
type MockCartGateway struct {
	mock.Mock
}

func (m *MockCartGateway) CreateCart(ctx context.Context, clientID string) (*model.RemoteCart, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RemoteCart), args.Error(1)
}

func (m *MockCartGateway) GetActiveCart(ctx context.Context, clientID string) (*model.RemoteCart, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RemoteCart), args.Error(1)
}

func (m *MockCartGateway) DeactivateCart(ctx context.Context, cartID string) (*model.RemoteCart, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RemoteCart), args.Error(1)
}

func (m *MockCartGateway) DeleteCart(ctx context.Context, cartID string) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

func (m *MockCartGateway) AddLine(ctx context.Context, cartID, productID string, quantity int) (*model.RemoteCartLine, error) {
	args := m.Called(ctx, cartID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RemoteCartLine), args.Error(1)
}

func (m *MockCartGateway) GetLines(ctx context.Context, cartID string) ([]model.RemoteCartLine, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RemoteCartLine), args.Error(1)
}

func (m *MockCartGateway) GetTotal(ctx context.Context, cartID string) (decimal.Decimal, error) {
	args := m.Called(ctx, cartID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCartGateway) GetItemCount(ctx context.Context, cartID string) (int, error) {
	args := m.Called(ctx, cartID)
	return args.Int(0), args.Error(1)
}

func (m *MockCartGateway) UpdateLine(ctx context.Context, lineID string, quantity int, unitPrice decimal.Decimal) (*model.RemoteCartLine, error) {
	args := m.Called(ctx, lineID, quantity, unitPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RemoteCartLine), args.Error(1)
}

func (m *MockCartGateway) RemoveLine(ctx context.Context, cartID, lineID string) error {
	args := m.Called(ctx, cartID, lineID)
	return args.Error(0)
}

// MockOrderGateway is a mock implementation of gateway.OrderGateway.
type MockOrderGateway struct {
	mock.Mock
}

func (m *MockOrderGateway) CreateOrder(ctx context.Context, cartID, clientID string) (*model.Order, error) {
	args := m.Called(ctx, cartID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderGateway) CreateInvoice(ctx context.Context, orderID string) (*model.Invoice, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *MockOrderGateway) SendInvoiceEmail(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

// MockCatalogGateway is a mock implementation of gateway.CatalogGateway.
type MockCatalogGateway struct {
	mock.Mock
}

func (m *MockCatalogGateway) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockCatalogGateway) UpdateStock(ctx context.Context, productID string, stock int) (*model.Product, error) {
	args := m.Called(ctx, productID, stock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}
