package service

// DefaultSeedQuestions — стартовый каталог системных вопросов.
// Засевается при старте, повторный посев ничего не дублирует.
var DefaultSeedQuestions = []string{
	"Do you want kids in the future?",
	"Are you looking for a long-term relationship?",
	"Do you enjoy outdoor activities?",
	"Are you a morning person?",
	"Do you like pets?",
	"Do you prefer city living over rural areas?",
	"Is travel important to you?",
	"Do you like to cook at home?",
	"Are you open to relocation?",
	"Do you enjoy live music events?",
	"Do you prefer a quiet night in over a night out?",
	"Is fitness part of your routine?",
	"Do you like trying new restaurants?",
	"Do you enjoy hiking?",
	"Are you an introvert?",
	"Do you enjoy group activities?",
	"Do you value spontaneity?",
	"Is financial planning important to you?",
	"Do you enjoy reading books?",
	"Are you a fan of board games?",
	"Do you like watching movies at home?",
	"Do you enjoy art museums?",
	"Are you interested in volunteering?",
	"Do you like visiting farmers markets?",
	"Do you enjoy beach vacations?",
	"Are you comfortable with pets at home?",
	"Do you want to own a home someday?",
	"Do you enjoy weekend getaways?",
	"Do you prefer texting over phone calls?",
	"Do you like coffee more than tea?",
	"Do you enjoy morning workouts?",
	"Is work-life balance a priority?",
	"Do you like trying new hobbies?",
	"Do you enjoy comedy shows?",
	"Do you like hosting friends at home?",
	"Do you enjoy road trips?",
	"Do you enjoy dancing?",
	"Is environmental sustainability important to you?",
	"Do you like planning trips in advance?",
	"Are you okay with long-distance relationships?",
	"Do you like gardening?",
	"Do you enjoy gaming?",
	"Do you like petsitting for friends?",
	"Are you interested in entrepreneurship?",
	"Do you enjoy yoga or meditation?",
	"Do you prefer early dinners?",
	"Do you enjoy attending sports events?",
	"Do you like minimalist living?",
	"Are you okay with shared finances?",
	"Do you enjoy surprise gifts?",
}
