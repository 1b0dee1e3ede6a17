//go:build integration
// +build integration

package conn

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	redisHost = flag.String("redis.host", svcHost("127.0.0.1", "redis"), "Redis integration server host")
	redisPort = flag.Uint("redis.port", svcPort(16379, 6379), "Redis integration server port")

	mysqlHost     = flag.String("mysql.host", svcHost("127.0.0.1", "mysql"), "MySQL integration server host")
	mysqlPort     = flag.Uint("mysql.port", svcPort(13306, 3306), "MySQL integration server port")
	mysqlUsername = flag.String("mysql.username", "tester", "MySQL integration username")
	mysqlPassword = flag.String("mysql.password", "integration_test", "MySQL integration password")
	mysqlDatabase = flag.String("mysql.database", "integration", "MySQL integration database")

	mongodbHost = flag.String("mongodb.host", svcHost("127.0.0.1", "mongodb"), "MongoDB integration server host")
	mongodbPort = flag.Uint("mongodb.port", svcPort(17017, 27017), "MongoDB integration server port")

	amqpHost = flag.String("amqp.host", svcHost("127.0.0.1", "amqp"), "AMQP integration server host")
	amqpPort = flag.Uint("amqp.port", svcPort(15672, 5672), "AMQP integration server port")

	smtpHost = flag.String("smtp.host", svcHost("127.0.0.1", "smtp"), "SMTP integration server host")
	smtpPort = flag.Uint("smtp.port", svcPort(10025, 25), "SMTP integration server port")
)

func openIntegration(t *testing.T, domain, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := DefaultConnector{Timeout: 10 * time.Second}.Open(ctx, domain, token)
	require.NoError(t, err, "Open")
	defer c.Close()

	assert.NoError(t, c.Ping(ctx), "Ping")
}

func TestRedisConnOk(t *testing.T) {
	openIntegration(t, fmt.Sprintf("redis://%s:%d/0", *redisHost, *redisPort), "")
}

func TestMySQLConnOk(t *testing.T) {
	u := url.URL{
		Scheme: "mysql",
		User:   url.UserPassword(*mysqlUsername, *mysqlPassword),
		Host:   fmt.Sprintf("%s:%d", *mysqlHost, *mysqlPort),
		Path:   "/" + *mysqlDatabase,
	}
	openIntegration(t, u.String(), "")
}

func TestMongoDBConnOk(t *testing.T) {
	openIntegration(t, fmt.Sprintf("mongodb://%s:%d", *mongodbHost, *mongodbPort), "")
}

func TestAmqpConnOk(t *testing.T) {
	openIntegration(t, fmt.Sprintf("amqp://guest:guest@%s:%d/", *amqpHost, *amqpPort), "")
}

func TestSMTPConnOk(t *testing.T) {
	openIntegration(t, fmt.Sprintf("smtp://%s:%d", *smtpHost, *smtpPort), "")
}
