package outbox

const sessionCompletedSchema = `{
  "type": "object",
  "title": "SessionCompleted",
  "properties": {
    "session_id": {"type": "string"},
    "user_id": {"type": "string"},
    "xp_gained": {"type": "integer"},
    "total_xp": {"type": "integer"},
    "level": {"type": "integer"},
    "level_up": {"type": "boolean"},
    "current_streak": {"type": "integer"},
    "longest_streak": {"type": "integer"},
    "completed_at": {"type": "string", "format": "date-time"}
  },
  "required": ["session_id", "user_id", "xp_gained", "total_xp", "level", "level_up", "current_streak", "longest_streak", "completed_at"],
  "additionalProperties": false
}`

const achievementUnlockedSchema = `{
  "type": "object",
  "title": "AchievementUnlocked",
  "properties": {
    "user_id": {"type": "string"},
    "achievement_id": {"type": "string"},
    "name": {"type": "string"},
    "xp_reward": {"type": "integer"},
    "coins_reward": {"type": "integer"},
    "unlocked_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "achievement_id", "name", "xp_reward", "coins_reward", "unlocked_at"],
  "additionalProperties": false
}`
