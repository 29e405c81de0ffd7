package mailservice

import (
	"bytes"
	"sync"

	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/blogmate/internal/common"
)

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	args := m.Called(name, data)
	return args.Get(0).(*bytes.Buffer), args.Get(1).(*bytes.Buffer), args.Get(2).(*bytes.Buffer), args.Error(3)
}

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*mail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

// MockMailer records sends instead of dialing SMTP.
type MockMailer struct {
	mu        sync.Mutex
	emails    []string
	templates []string
}

func (m *MockMailer) send(recipient string, data any, templateFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, recipient)
	m.templates = append(m.templates, templateFile)
	return nil
}

func (m *MockMailer) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.emails...)
}

func (m *MockMailer) sentTemplates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.templates...)
}

// MockMessageConsumer delivers one canned message per Consume call.
type MockMessageConsumer struct {
	Body string
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	msgsChan := make(chan amqp.Delivery)

	go func() {
		defer close(msgsChan)
		msgsChan <- amqp.Delivery{Body: []byte(m.Body)}
	}()

	return msgsChan, nil
}
