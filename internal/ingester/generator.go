package ingester

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

var positiveTemplates = []string{
	"I absolutely love {product}! Best purchase ever!",
	"Amazing experience with {product}, highly recommend!",
	"{product} exceeded all my expectations!",
	"So happy with {product}, works perfectly!",
	"Great quality {product}, worth every penny!",
	"{product} is fantastic! Customer service was excellent too.",
	"Just got {product} and I'm thrilled with it!",
	"Five stars for {product}! Outstanding product!",
	"Best {product} I've ever used, simply amazing!",
	"Love how {product} makes everything so easy!",
}

var negativeTemplates = []string{
	"Very disappointed with {product}, total waste of money.",
	"Terrible experience with {product}, would not recommend.",
	"{product} broke after one week, horrible quality!",
	"Worst {product} ever, customer service was unhelpful.",
	"Stay away from {product}, complete disaster!",
	"{product} is a scam, doesn't work as advertised.",
	"Hate {product}, returning it immediately!",
	"Frustrated with {product}, nothing but problems.",
	"{product} is overpriced garbage, very disappointed.",
	"Never buying {product} again, awful experience!",
}

var neutralTemplates = []string{
	"Just received {product} today, will test it out.",
	"Looking at reviews for {product} before deciding.",
	"{product} arrived on time, packaging was standard.",
	"Anyone else using {product}? Curious about opinions.",
	"Ordered {product} last week, waiting to see how it performs.",
	"{product} seems okay, nothing special so far.",
	"Comparing {product} with other options in the market.",
	"First time trying {product}, no strong opinion yet.",
	"The {product} works as described, meets basic needs.",
	"Thinking about getting {product}, need more info.",
}

var products = []string{
	"iPhone 16", "Tesla Model 3", "ChatGPT", "Netflix", "Amazon Prime",
	"Spotify Premium", "MacBook Pro", "PlayStation 5", "Samsung Galaxy S24",
	"Google Pixel 9", "AirPods Pro", "Kindle Paperwhite", "Nintendo Switch",
	"Disney Plus", "Adobe Creative Cloud", "Microsoft 365",
}

var platforms = []string{"reddit", "twitter", "facebook", "instagram", "tiktok"}

var authors = []string{
	"tech_enthusiast", "daily_reviewer", "gadget_lover", "honest_user",
	"savvy_shopper", "product_tester", "real_consumer", "average_joe",
	"power_user", "casual_buyer", "deal_hunter", "quality_seeker",
}

// GeneratePost builds one synthetic post as flat stream fields, weighted
// 40/30/30 across positive, neutral and negative templates.
func GeneratePost() map[string]string {
	var template string
	switch roll := rand.Float64(); {
	case roll < 0.4:
		template = positiveTemplates[rand.Intn(len(positiveTemplates))]
	case roll < 0.7:
		template = neutralTemplates[rand.Intn(len(neutralTemplates))]
	default:
		template = negativeTemplates[rand.Intn(len(negativeTemplates))]
	}

	product := products[rand.Intn(len(products))]
	content := strings.ReplaceAll(template, "{product}", product)

	return map[string]string{
		"post_id":    uuid.NewString(),
		"content":    content,
		"platform":   platforms[rand.Intn(len(platforms))],
		"author":     authors[rand.Intn(len(authors))],
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
}
