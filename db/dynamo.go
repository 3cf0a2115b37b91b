package db

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	charmlog "github.com/charmbracelet/log"
	"github.com/jsphweid/bmsdex/model"
	"github.com/pkg/errors"
)

const keyAttribute = "PK"

type Dynamo struct {
	client *dynamodb.DynamoDB
	table  string
}

// OpenDynamo connects to a DynamoDB table keyed by chart hash. A non-empty
// endpoint points at a local instance and uses fixed credentials.
func OpenDynamo(endpoint, region, table string) (*Dynamo, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.Credentials = credentials.NewStaticCredentials("local", "local", "")
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating DynamoDB session")
	}
	return &Dynamo{client: dynamodb.New(sess), table: table}, nil
}

func key(sha256 string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		keyAttribute: {S: aws.String(sha256)},
	}
}

func (d *Dynamo) Lookup(ctx context.Context, sha256 string) (model.Song, error) {
	var song model.Song
	out, err := d.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       key(sha256),
	})
	if err != nil {
		return song, errors.Wrap(err, "DynamoDB get")
	}
	if len(out.Item) == 0 {
		return song, errors.Wrapf(ErrSongNotFound, "sha256 %s", sha256)
	}
	if err := dynamodbattribute.UnmarshalMap(out.Item, &song); err != nil {
		return song, errors.Wrap(err, "decoding song")
	}
	return song, nil
}

func (d *Dynamo) Put(ctx context.Context, song model.Song) error {
	item, err := dynamodbattribute.MarshalMap(song)
	if err != nil {
		return errors.Wrap(err, "encoding song")
	}
	item[keyAttribute] = &dynamodb.AttributeValue{S: aws.String(song.SHA256)}
	_, err = d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	if err != nil {
		return errors.Wrapf(err, "DynamoDB put %s", song.SHA256)
	}
	charmlog.FromContext(ctx).Debug("song stored", "sha256", song.SHA256, "table", d.table)
	return nil
}

func (d *Dynamo) List(ctx context.Context) ([]model.Song, error) {
	var songs []model.Song
	var decodeErr error
	err := d.client.ScanPagesWithContext(ctx, &dynamodb.ScanInput{
		TableName: aws.String(d.table),
	}, func(page *dynamodb.ScanOutput, last bool) bool {
		for _, item := range page.Items {
			var s model.Song
			if err := dynamodbattribute.UnmarshalMap(item, &s); err != nil {
				decodeErr = errors.Wrap(err, "decoding song")
				return false
			}
			songs = append(songs, s)
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrap(err, "DynamoDB scan")
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return songs, nil
}

func (d *Dynamo) Close() error {
	return nil
}
